package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

var publicUserColumns = []string{"id", "name", "email", "created_at"}

func withRoles(db *gorm.DB) *gorm.DB {
	return db.Preload("Roles.Permissions")
}

func publicAuthor(db *gorm.DB) *gorm.DB {
	return db.Select(publicUserColumns)
}

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := withRoles(r.DB.WithContext(ctx)).Select(publicUserColumns).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserWithPassword is the only read that loads the password hash.
func (r *GormRepo) UserWithPassword(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := withRoles(r.DB.WithContext(ctx)).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts u and grants it the named role.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User, roleName string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
			return fmt.Errorf("role %q: %w", roleName, err)
		}
		if err := tx.Omit("Roles").Create(u).Error; err != nil {
			return err
		}
		if err := tx.Model(u).Association("Roles").Append(&role); err != nil {
			return err
		}
		return nil
	})
}

type UserPatch struct {
	Name  *string
	Email *string
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}

	if len(updates) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.UserByID(ctx, id)
}

// DeleteUser removes the user together with their posts and comments. It returns the ids
// of the removed posts.
func (r *GormRepo) DeleteUser(ctx context.Context, id uint) ([]uint, error) {
	var postIDs []uint
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM post_tags WHERE post_id IN ?", postIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return postIDs, nil
}
