package transport

import (
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/util"
	"github.com/Skotchmaster/blog_api/internal/validate"
)

type IDParams struct {
	ID uint `param:"id" validate:"required,gt=0"`
}

// Page and PageSize stay nil when absent so an explicit zero is rejected, not defaulted.
type PagingQuery struct {
	Page     *int `query:"page" validate:"omitnil,gte=1"`
	PageSize *int `query:"pageSize" validate:"omitnil,gte=1,lte=100"`
}

func (q PagingQuery) Pages() (page, size int) { return pages(q.Page, q.PageSize) }

func pages(page, size *int) (int, int) {
	p, s := 1, util.DefaultPageSize
	if page != nil {
		p = *page
	}
	if size != nil {
		s = *size
	}
	return p, s
}

// auth

type LoginBody struct {
	Email    string `json:"email" mod:"trim,lcase" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupBody struct {
	Name     string `json:"name" mod:"trim" validate:"required,max=255"`
	Email    string `json:"email" mod:"trim,lcase" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72,bcryptlen"`
}

type (
	LoginRequest  = validate.Request[validate.None, validate.None, LoginBody]
	SignupRequest = validate.Request[validate.None, validate.None, SignupBody]
)

type LoginResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// users

type UpdateUserBody struct {
	Name  *string `json:"name" mod:"trim" validate:"omitnil,min=1,max=255"`
	Email *string `json:"email" mod:"trim,lcase" validate:"omitnil,email,max=255"`
}

type (
	UserRequest       = validate.Request[IDParams, validate.None, validate.None]
	UpdateUserRequest = validate.Request[IDParams, validate.None, UpdateUserBody]
)

// posts

type ListPostsQuery struct {
	Page        *int     `query:"page" validate:"omitnil,gte=1"`
	PageSize    *int     `query:"pageSize" validate:"omitnil,gte=1,lte=100"`
	Tags        []string `query:"tags" validate:"omitempty,max=10,dive,slug"`
	Q           string   `query:"q" mod:"trim" validate:"max=200"`
	Unpublished bool     `query:"unpublished"`
	AuthorID    uint     `query:"authorId"`
}

func (q ListPostsQuery) Pages() (page, size int) { return pages(q.Page, q.PageSize) }

type SearchQuery struct {
	Page     *int   `query:"page" validate:"omitnil,gte=1"`
	PageSize *int   `query:"pageSize" validate:"omitnil,gte=1,lte=100"`
	Q        string `query:"q" mod:"trim" validate:"required,max=200"`
}

func (q SearchQuery) Pages() (page, size int) { return pages(q.Page, q.PageSize) }

type PostBody struct {
	Title       string `json:"title" mod:"trim" validate:"required,max=255"`
	Description string `json:"description" mod:"trim" validate:"max=1000"`
	Body        string `json:"body" validate:"required"`
	Tags        []uint `json:"tags" validate:"omitempty,max=20,dive,gt=0"`
}

type (
	ListPostsRequest   = validate.Request[validate.None, ListPostsQuery, validate.None]
	SearchPostsRequest = validate.Request[validate.None, SearchQuery, validate.None]
	PostRequest        = validate.Request[IDParams, validate.None, validate.None]
	CreatePostRequest  = validate.Request[validate.None, validate.None, PostBody]
	UpdatePostRequest  = validate.Request[IDParams, validate.None, PostBody]
)

// comments

type CommentBody struct {
	Body string `json:"body" mod:"trim" validate:"required,max=5000"`
}

type (
	ListCommentsRequest  = validate.Request[IDParams, PagingQuery, validate.None]
	CreateCommentRequest = validate.Request[IDParams, validate.None, CommentBody]
	CommentRequest       = validate.Request[IDParams, validate.None, validate.None]
	UpdateCommentRequest = validate.Request[IDParams, validate.None, CommentBody]
)

// tags

type TagBody struct {
	Name string `json:"name" mod:"trim" validate:"required,max=64"`
	Slug string `json:"slug" mod:"trim,lcase" validate:"omitempty,max=64,slug"`
}

type (
	TagRequest       = validate.Request[IDParams, validate.None, validate.None]
	CreateTagRequest = validate.Request[validate.None, validate.None, TagBody]
	UpdateTagRequest = validate.Request[IDParams, validate.None, TagBody]
)
