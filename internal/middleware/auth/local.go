package auth

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
)

// Credentials pulls the e-mail and password out of a request. It reports false when the
// request carries none.
type Credentials func(c echo.Context) (email, password string, ok bool)

type LocalStrategy struct {
	Users       UserStore
	Hasher      PasswordVerifier
	Credentials Credentials
}

func (s *LocalStrategy) Authenticate(c echo.Context) (*models.User, error) {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("strategy", Local)

	email, password, ok := s.Credentials(c)
	if !ok {
		return nil, apperr.SignIn()
	}

	user, err := s.Users.UserWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.Hasher.BurnCompare(password)
			l.Warn("login_failed", "reason", "unknown email")
			return nil, apperr.SignIn()
		}
		return nil, apperr.Internal(fmt.Errorf("load user for login: %w", err))
	}

	if !s.Hasher.VerifyPassword(password, user.Password) {
		l.Warn("login_failed", "reason", "wrong password", "user_id", user.ID)
		return nil, apperr.SignIn()
	}

	user.Password = ""
	return user, nil
}
