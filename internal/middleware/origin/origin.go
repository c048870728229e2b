// Package origin guards cookie-authenticated endpoints against cross-site requests.
package origin

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/logging"
)

// Trusted lets a request through when it carries no Origin or Referer, or when the one it
// carries matches an allowed origin or the request's own host.
func Trusted(allowed []string) echo.MiddlewareFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = normalize(o); o != "" {
			set[o] = struct{}{}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			src := req.Header.Get(echo.HeaderOrigin)
			if src == "" {
				src = req.Referer()
			}
			if src == "" {
				return next(c)
			}

			o := normalize(src)
			if _, ok := set["*"]; ok {
				return next(c)
			}
			if _, ok := set[o]; ok || sameOrigin(o, req) {
				return next(c)
			}

			logging.FromContext(req.Context()).Warn("origin_rejected", "origin", o)
			return apperr.Forbidden("Invalid origin")
		}
	}
}

// normalize reduces a URL to scheme://host in lower case. Unparseable input yields "".
func normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "*" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func sameOrigin(o string, r *http.Request) bool {
	if o == "" {
		return false
	}
	return o == strings.ToLower(schemeOf(r)+"://"+r.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get(echo.HeaderXForwardedProto); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
