package origin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_api/internal/apperr"
)

func TestTrusted(t *testing.T) {
	mw := Trusted([]string{"https://blog.example.com/"})
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	cases := []struct {
		name    string
		headers map[string]string
		allowed bool
	}{
		{"no origin or referer", nil, true},
		{"allowed origin", map[string]string{"Origin": "https://blog.example.com"}, true},
		{"allowed origin with other case", map[string]string{"Origin": "HTTPS://Blog.Example.com"}, true},
		{"same host", map[string]string{"Origin": "http://api.local"}, true},
		{"same host via forwarded proto", map[string]string{"Origin": "https://api.local", "X-Forwarded-Proto": "https"}, true},
		{"referer fallback", map[string]string{"Referer": "https://blog.example.com/posts/1"}, true},
		{"foreign origin", map[string]string{"Origin": "https://evil.example"}, false},
		{"foreign referer", map[string]string{"Referer": "https://evil.example/x"}, false},
		{"garbage origin", map[string]string{"Origin": "null"}, false},
	}

	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/token", nil)
			req.Host = "api.local"
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			err := mw(ok)(e.NewContext(req, rec))
			if tc.allowed {
				require.NoError(t, err)
				require.Equal(t, http.StatusOK, rec.Code)
				return
			}
			var fe *apperr.ForbiddenError
			require.True(t, errors.As(err, &fe))
		})
	}
}

func TestTrusted_Wildcard(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/token", nil)
	req.Header.Set(echo.HeaderOrigin, "https://anything.example")
	rec := httptest.NewRecorder()

	err := Trusted([]string{"*"})(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(e.NewContext(req, rec))
	require.NoError(t, err)
}
