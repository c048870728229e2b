package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/pkg/tokens"
)

// RefreshCookieName is the only cookie the API sets.
const RefreshCookieName = "refreshToken"

// CookieJar signs the refresh cookie so a client cannot swap its value.
type CookieJar struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
}

func NewCookieJar(hashKey []byte, maxAge time.Duration) (*CookieJar, error) {
	if len(hashKey) == 0 {
		return nil, errors.New("cookie signing key is empty")
	}
	if maxAge <= 0 {
		maxAge = tokens.DefaultRefreshTTL
	}
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(maxAge.Seconds()))
	return &CookieJar{codec: codec, maxAge: maxAge}, nil
}

func (j *CookieJar) Issue(token string) (*http.Cookie, error) {
	value, err := j.codec.Encode(RefreshCookieName, token)
	if err != nil {
		return nil, fmt.Errorf("sign refresh cookie: %w", err)
	}
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(j.maxAge.Seconds()),
		Expires:  time.Now().Add(j.maxAge),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (j *CookieJar) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Read returns the token inside the cookie, or an error when the cookie is absent or its
// signature does not match.
func (j *CookieJar) Read(r *http.Request) (string, error) {
	ck, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return "", err
	}
	var token string
	if err := j.codec.Decode(RefreshCookieName, ck.Value, &token); err != nil {
		return "", err
	}
	return token, nil
}

type RefreshCookieStrategy struct {
	Jar    *CookieJar
	Tokens *tokens.Service
	Users  UserStore
}

func (s *RefreshCookieStrategy) Authenticate(c echo.Context) (*models.User, error) {
	raw, err := s.Jar.Read(c.Request())
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, errNoCredentials
		}
		return nil, errTokenInvalid
	}
	return loadSubject(c, s.Tokens, s.Users, raw, tokens.Refresh)
}
