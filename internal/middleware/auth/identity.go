// Package auth authenticates requests with a chain of strategies and authorizes them
// against the permissions granted by the caller's roles.
package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/models"
)

const identityKey = "identity"

// Strategy names known to the registry.
const (
	Local     = "local"
	Bearer    = "bearer"
	Refresh   = "refresh"
	Anonymous = "anonymous"
)

// Strategy turns a request into an identity. A nil user with a nil error is an anonymous
// success. Credential problems are reported as *apperr.UnauthorizedError; anything else
// aborts the chain.
type Strategy interface {
	Authenticate(c echo.Context) (*models.User, error)
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(c echo.Context) (*models.User, error)

func (f StrategyFunc) Authenticate(c echo.Context) (*models.User, error) { return f(c) }

// UserStore is the lookup the strategies need. Both methods return
// gorm.ErrRecordNotFound when there is no such user.
type UserStore interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserWithPassword(ctx context.Context, email string) (*models.User, error)
}

// PasswordVerifier is satisfied by *hash.Hasher.
type PasswordVerifier interface {
	VerifyPassword(password, hash string) bool
	BurnCompare(password string)
}

func setIdentity(c echo.Context, u *models.User) {
	c.Set(identityKey, u)
}

// Identity returns the user attached by a strategy. It reports false for anonymous
// requests.
func Identity(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(identityKey).(*models.User)
	return u, ok && u != nil
}

// AnonymousStrategy always succeeds without an identity.
func AnonymousStrategy() Strategy {
	return StrategyFunc(func(echo.Context) (*models.User, error) { return nil, nil })
}
