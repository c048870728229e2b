package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
)

type TagHandler struct {
	Tags *service.TagService
}

func (h *TagHandler) List(c echo.Context) error {
	tags, err := h.Tags.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) Get(c echo.Context, in *transport.TagRequest) error {
	tag, err := h.Tags.Get(c.Request().Context(), in.Params.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) Create(c echo.Context, in *transport.CreateTagRequest) error {
	tag, err := h.Tags.Create(c.Request().Context(), in.Body.Name, in.Body.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) Update(c echo.Context, in *transport.UpdateTagRequest) error {
	tag, err := h.Tags.Update(c.Request().Context(), in.Params.ID, in.Body.Name, in.Body.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) Delete(c echo.Context, in *transport.TagRequest) error {
	if err := h.Tags.Delete(c.Request().Context(), in.Params.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
