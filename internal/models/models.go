package models

import (
	"time"
)

type PermissionType string

const (
	PermCreate PermissionType = "CREATE"
	PermRead   PermissionType = "READ"
	PermUpdate PermissionType = "UPDATE"
	PermDelete PermissionType = "DELETE"
)

var AllPermissions = []PermissionType{PermCreate, PermRead, PermUpdate, PermDelete}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Permission struct {
	ID   uint           `gorm:"primaryKey;autoIncrement"      json:"id"`
	Type PermissionType `gorm:"uniqueIndex;not null;size:16"  json:"type"`
}

type Role struct {
	ID          uint         `gorm:"primaryKey;autoIncrement"           json:"id"`
	Name        string       `gorm:"uniqueIndex;not null;size:64"       json:"name"`
	Permissions []Permission `gorm:"many2many:role_permissions;"        json:"permissions,omitempty"`
}

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"            json:"id"`
	Name      string    `gorm:"not null;size:255"                   json:"name"`
	Email     string    `gorm:"uniqueIndex;not null;size:255"       json:"email"`
	Password  string    `gorm:"not null"                            json:"-"`
	Roles     []Role    `gorm:"many2many:user_roles;"               json:"roles,omitempty"`
	CreatedAt time.Time `                                           json:"createdAt"`
}

// PermissionSet flattens every role of the user into one set.
func (u *User) PermissionSet() map[PermissionType]struct{} {
	set := make(map[PermissionType]struct{})
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			set[p.Type] = struct{}{}
		}
	}
	return set
}

func (u *User) Can(p PermissionType) bool {
	_, ok := u.PermissionSet()[p]
	return ok
}

type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:64"  json:"name"`
	Slug string `gorm:"uniqueIndex;not null;size:64"  json:"slug"`
}

type Post struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"                 json:"id"`
	Title         string     `gorm:"not null;size:255"                        json:"title"`
	Description   string     `gorm:"not null;default:''"                      json:"description"`
	Body          string     `gorm:"not null;default:''"                      json:"body"`
	ReadingTime   int        `gorm:"not null;default:1"                       json:"readingTime"`
	PublishedAt   *time.Time `gorm:"index"                                    json:"publishedAt"`
	AuthorID      uint       `gorm:"index;not null"                           json:"authorId"`
	Author        *User      `gorm:"constraint:OnDelete:CASCADE;"             json:"author,omitempty"`
	Tags          []Tag      `gorm:"many2many:post_tags;"                     json:"tags"`
	CommentsCount int64      `gorm:"-"                                        json:"commentsCount"`
	CreatedAt     time.Time  `                                                json:"createdAt"`
	UpdatedAt     time.Time  `                                                json:"updatedAt"`
}

func (p *Post) Published() bool { return p.PublishedAt != nil }

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"         json:"id"`
	Body      string    `gorm:"not null"                         json:"body"`
	PostID    uint      `gorm:"index;not null"                   json:"postId"`
	Post      *Post     `gorm:"constraint:OnDelete:CASCADE;"     json:"-"`
	AuthorID  uint      `gorm:"index;not null"                   json:"authorId"`
	Author    *User     `gorm:"constraint:OnDelete:CASCADE;"     json:"author,omitempty"`
	CreatedAt time.Time `                                        json:"createdAt"`
	UpdatedAt time.Time `                                        json:"updatedAt"`
}

// All lists the tables in migration order.
func All() []any {
	return []any{&Permission{}, &Role{}, &User{}, &Tag{}, &Post{}, &Comment{}}
}
