package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
)

type CommentHandler struct {
	Comments *service.CommentService
}

func (h *CommentHandler) List(c echo.Context, in *transport.ListCommentsRequest) error {
	pageNo, size := in.Query.Pages()
	page, err := h.Comments.List(c.Request().Context(), in.Params.ID, pageNo, size, viewer(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CommentHandler) Create(c echo.Context, in *transport.CreateCommentRequest) error {
	author, err := caller(c)
	if err != nil {
		return err
	}
	comment, err := h.Comments.Create(c.Request().Context(), author, in.Params.ID, in.Body.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Update(c echo.Context, in *transport.UpdateCommentRequest) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	comment, err := h.Comments.Update(c.Request().Context(), actor, in.Params.ID, in.Body.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c echo.Context, in *transport.CommentRequest) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.Comments.Delete(c.Request().Context(), actor, in.Params.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
