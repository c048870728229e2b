package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
)

// RequirePermission lets the request through only when the identity's roles grant p.
// A missing identity is a 403 too.
func RequirePermission(p models.PermissionType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context())

			user, ok := Identity(c)
			switch {
			case !ok:
				l.Warn("permission_denied", "permission", p, "reason", "no identity")
				return apperr.Forbidden("")
			case len(user.Roles) == 0:
				l.Warn("permission_denied", "permission", p, "reason", "no roles", "user_id", user.ID)
				return apperr.Forbidden("")
			case !user.Can(p):
				l.Warn("permission_denied", "permission", p, "reason", "missing permission", "user_id", user.ID)
				return apperr.Forbidden("")
			}
			return next(c)
		}
	}
}

// Allowed reports whether the request's identity holds p. Handlers use it for rules that
// depend on the resource, such as letting an author edit their own comment.
func Allowed(c echo.Context, p models.PermissionType) bool {
	user, ok := Identity(c)
	return ok && user.Can(p)
}
