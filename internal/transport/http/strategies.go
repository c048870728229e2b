package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/transport"
	"github.com/Skotchmaster/blog_api/internal/validate"
	"github.com/Skotchmaster/blog_api/pkg/tokens"
)

// NewRegistry registers the four strategies the routes refer to by name.
func NewRegistry(users auth.UserStore, hasher auth.PasswordVerifier, tokenSvc *tokens.Service, jar *auth.CookieJar) (*auth.Registry, error) {
	r := auth.NewRegistry()
	strategies := []struct {
		name string
		s    auth.Strategy
	}{
		{auth.Local, &auth.LocalStrategy{Users: users, Hasher: hasher, Credentials: loginCredentials}},
		{auth.Bearer, &auth.BearerStrategy{Tokens: tokenSvc, Users: users}},
		{auth.Refresh, &auth.RefreshCookieStrategy{Jar: jar, Tokens: tokenSvc, Users: users}},
		{auth.Anonymous, auth.AnonymousStrategy()},
	}
	for _, st := range strategies {
		if err := r.Register(st.name, st.s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// loginCredentials reads the validated login body.
func loginCredentials(c echo.Context) (string, string, bool) {
	in, ok := validate.Input[transport.LoginRequest](c)
	if !ok {
		return "", "", false
	}
	return in.Body.Email, in.Body.Password, true
}
