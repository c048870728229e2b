package auth

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apperr"
)

// Registry holds the named strategies. It is filled once at startup and only read
// afterwards.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

func (r *Registry) Register(name string, s Strategy) error {
	if name == "" || s == nil {
		return errors.New("strategy name and implementation are required")
	}
	if _, dup := r.strategies[name]; dup {
		return fmt.Errorf("strategy %q already registered", name)
	}
	r.strategies[name] = s
	return nil
}

// Authenticate returns the authentication stage of a route. The named strategies are
// tried in order and the first success wins. When every strategy fails the last
// credential error is returned, so a chain ending in Local keeps the sign-in message.
//
// Unknown names panic: they are wiring mistakes caught when routes are registered.
func (r *Registry) Authenticate(names ...string) echo.MiddlewareFunc {
	if len(names) == 0 {
		panic("auth: at least one strategy is required")
	}
	chain := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := r.strategies[name]
		if !ok {
			panic(fmt.Sprintf("auth: strategy %q is not registered", name))
		}
		chain = append(chain, s)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var last error = apperr.Unauthorized("")
			for _, s := range chain {
				user, err := s.Authenticate(c)
				if err == nil {
					if user != nil {
						setIdentity(c, user)
					}
					return next(c)
				}
				var ue *apperr.UnauthorizedError
				if !errors.As(err, &ue) {
					return err
				}
				last = ue
			}
			return last
		}
	}
}
