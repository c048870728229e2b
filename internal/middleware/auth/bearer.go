package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/pkg/tokens"
)

const bearerPrefix = "Bearer "

var (
	errNoCredentials = apperr.Unauthorized("Missing credentials")
	errTokenExpired  = apperr.Unauthorized("Token expired")
	errTokenInvalid  = apperr.Unauthorized("Invalid token")
)

type BearerStrategy struct {
	Tokens *tokens.Service
	Users  UserStore
}

func (s *BearerStrategy) Authenticate(c echo.Context) (*models.User, error) {
	raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil, errNoCredentials
	}
	return loadSubject(c, s.Tokens, s.Users, raw, tokens.Access)
}

// bearerToken accepts exactly "Bearer <token>". Other casings, extra spaces and other
// schemes are rejected.
func bearerToken(header string) (string, bool) {
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}

func loadSubject(c echo.Context, svc *tokens.Service, users UserStore, raw string, kind tokens.Kind) (*models.User, error) {
	claims, err := svc.Verify(raw, kind)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenExpired) {
			return nil, errTokenExpired
		}
		return nil, errTokenInvalid
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, errTokenInvalid
	}

	user, err := users.UserByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errTokenInvalid
		}
		return nil, apperr.Internal(fmt.Errorf("load %s token subject: %w", kind, err))
	}
	return user, nil
}
