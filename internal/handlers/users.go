package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
)

type UserHandler struct {
	Users *service.UserService
}

func (h *UserHandler) Me(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Get(c echo.Context, in *transport.UserRequest) error {
	user, err := h.Users.Get(c.Request().Context(), in.Params.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c echo.Context, in *transport.UpdateUserRequest) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	user, err := h.Users.Update(c.Request().Context(), actor, in.Params.ID, repo.UserPatch{
		Name:  in.Body.Name,
		Email: in.Body.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c echo.Context, in *transport.UserRequest) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.Users.Delete(c.Request().Context(), actor, in.Params.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
