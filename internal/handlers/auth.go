package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
)

type AuthHandler struct {
	Auth *service.AuthService
	Jar  *auth.CookieJar
}

// Login runs after the local strategy accepted the credentials.
func (h *AuthHandler) Login(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "login")

	user, err := caller(c)
	if err != nil {
		return err
	}

	session, err := h.Auth.IssueSession(user)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return err
	}
	cookie, err := h.Jar.Issue(session.RefreshToken)
	if err != nil {
		return apperr.Internal(err)
	}
	c.SetCookie(cookie)

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{User: user, AccessToken: session.AccessToken})
}

func (h *AuthHandler) Signup(c echo.Context, in *transport.SignupRequest) error {
	user, err := h.Auth.Signup(c.Request().Context(), in.Body.Name, in.Body.Email, in.Body.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Token exchanges the refresh cookie for a new access token.
func (h *AuthHandler) Token(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	access, err := h.Auth.IssueAccess(user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.TokenResponse{AccessToken: access})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.Jar.Clear())
	return c.NoContent(http.StatusNoContent)
}
