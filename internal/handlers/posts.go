package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/service/search"
	"github.com/Skotchmaster/blog_api/internal/transport"
	"github.com/Skotchmaster/blog_api/internal/util"
)

type PostHandler struct {
	Posts  *service.PostService
	Search *search.Service
}

type searchResponse struct {
	Data   []models.Post `json:"data"`
	Meta   util.Meta     `json:"meta"`
	Source string        `json:"source"`
}

func postInput(b transport.PostBody) service.PostInput {
	return service.PostInput{
		Title:       b.Title,
		Description: b.Description,
		Body:        b.Body,
		TagIDs:      b.Tags,
	}
}

func (h *PostHandler) List(c echo.Context, in *transport.ListPostsRequest) error {
	q := in.Query
	pageNo, size := q.Pages()
	page, err := h.Posts.List(c.Request().Context(), service.ListPostsInput{
		Page:        pageNo,
		PageSize:    size,
		TagSlugs:    q.Tags,
		Query:       q.Q,
		Unpublished: q.Unpublished,
		AuthorID:    q.AuthorID,
	}, viewer(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *PostHandler) SearchPosts(c echo.Context, in *transport.SearchPostsRequest) error {
	q := in.Query
	page, size := q.Pages()
	res, err := h.Search.Search(c.Request().Context(), q.Q, page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searchResponse{
		Data:   res.Items,
		Meta:   util.NewMeta(page, size, res.Total),
		Source: res.Source,
	})
}

func (h *PostHandler) Get(c echo.Context, in *transport.PostRequest) error {
	post, err := h.Posts.Get(c.Request().Context(), in.Params.ID, viewer(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Create(c echo.Context, in *transport.CreatePostRequest) error {
	author, err := caller(c)
	if err != nil {
		return err
	}
	post, err := h.Posts.Create(c.Request().Context(), author, postInput(in.Body))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Update(c echo.Context, in *transport.UpdatePostRequest) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	post, err := h.Posts.Update(c.Request().Context(), actor, in.Params.ID, postInput(in.Body))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Publish(c echo.Context, in *transport.PostRequest) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	post, err := h.Posts.Publish(c.Request().Context(), actor, in.Params.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Hide(c echo.Context, in *transport.PostRequest) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	post, err := h.Posts.Hide(c.Request().Context(), actor, in.Params.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Delete(c echo.Context, in *transport.PostRequest) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.Posts.Delete(c.Request().Context(), actor, in.Params.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
