package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/handlers"
	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/service/search"
	"github.com/Skotchmaster/blog_api/internal/validate"
	"github.com/Skotchmaster/blog_api/pkg/db"
	"github.com/Skotchmaster/blog_api/pkg/tokens"
)

type testEnv struct {
	e      *echo.Echo
	store  *repo.GormRepo
	hasher *hash.Hasher
	tokens *tokens.Service
}

type errorBody struct {
	Error struct {
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newTestEnv(t *testing.T, loginPerMinute int) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store := &repo.GormRepo{DB: gdb}
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Seed(ctx))

	hasher, err := hash.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokenSvc, err := tokens.NewService([]byte("access-secret"), []byte("refresh-secret"))
	require.NoError(t, err)
	jar, err := auth.NewCookieJar([]byte("cookie-secret-cookie-secret-1234"), 0)
	require.NoError(t, err)
	registry, err := NewRegistry(store, hasher, tokenSvc, jar)
	require.NoError(t, err)

	posts := &service.PostService{Repo: store}
	e := echo.New()
	e.HTTPErrorHandler = apperr.Handler(false)
	Register(e, &Deps{
		Validator:      validate.New(),
		Auth:           registry,
		TrustedOrigins: []string{"https://blog.example.com"},
		LoginPerMinute: loginPerMinute,
		Health:         &handlers.HealthHandler{DB: store},
		Sessions: &handlers.AuthHandler{
			Auth: &service.AuthService{Repo: store, Tokens: tokenSvc, Hasher: hasher},
			Jar:  jar,
		},
		Users:    &handlers.UserHandler{Users: &service.UserService{Repo: store}},
		Posts:    &handlers.PostHandler{Posts: posts, Search: &search.Service{Store: store}},
		Comments: &handlers.CommentHandler{Comments: &service.CommentService{Repo: store, Posts: posts}},
		Tags:     &handlers.TagHandler{Tags: &service.TagService{Repo: store}},
	})

	return &testEnv{e: e, store: store, hasher: hasher, tokens: tokenSvc}
}

func (env *testEnv) addUser(t *testing.T, email, password, role string) {
	t.Helper()
	pw, err := env.hasher.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, env.store.CreateUser(context.Background(), &models.User{Name: "n", Email: email, Password: pw}, role))
}

func (env *testEnv) do(t *testing.T, method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) login(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.RefreshCookieName {
			return resp.AccessToken, ck
		}
	}
	t.Fatal("login did not set the refresh cookie")
	return "", nil
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, 0)
	env.addUser(t, "a@b.com", "secret", models.RoleUser)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "  A@B.com ", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	token, _ := resp["accessToken"].(string)
	assert.Len(t, strings.Split(token, "."), 3)
	user, _ := resp["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, "a@b.com", user["email"])
	assert.NotContains(t, user, "password")

	stored, err := env.store.UserWithPassword(context.Background(), "a@b.com")
	require.NoError(t, err)
	claims, err := env.tokens.Verify(token, tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatUint(uint64(stored.ID), 10), claims.Subject)
	assert.Equal(t, stored.Name, claims.Name)
	assert.Equal(t, "a@b.com", claims.Email)

	setCookie := rec.Header().Get(echo.HeaderSetCookie)
	assert.Contains(t, setCookie, auth.RefreshCookieName+"=")
	assert.Contains(t, setCookie, "HttpOnly")
	assert.Contains(t, setCookie, "Secure")
	assert.Contains(t, setCookie, "SameSite=Lax")
	assert.Contains(t, setCookie, "Path=/")
	assert.Contains(t, setCookie, "Max-Age=2592000")
}

func TestLogin_SameMessageForUnknownEmailAndWrongPassword(t *testing.T) {
	env := newTestEnv(t, 0)
	env.addUser(t, "a@b.com", "secret", models.RoleUser)

	wrong := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "nope"})
	unknown := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "x@b.com", "password": "secret"})

	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, apperr.MsgSignIn, decodeError(t, wrong).Error.Message)
	assert.Equal(t, decodeError(t, wrong), decodeError(t, unknown))
	assert.Empty(t, wrong.Header().Get(echo.HeaderSetCookie))
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t, 0)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "not-an-email", "password": 12})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Expected string", body.Error.Details["password"])
	assert.Equal(t, "Invalid email", body.Error.Details["email"])

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"email": "Required", "password": "Required"}, decodeError(t, rec).Error.Details)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, 2)

	creds := map[string]string{"email": "a@b.com", "password": "secret"}
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/auth/login", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/auth/login", creds).Code)

	rec := env.do(t, http.MethodPost, "/auth/login", creds)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many login attempts", decodeError(t, rec).Error.Message)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t, 0)
	payload := map[string]string{"name": " Ann ", "email": "Ann@Blog.dev", "password": "secret1"}

	rec := env.do(t, http.MethodPost, "/auth/signup", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "Ann", user["name"])
	assert.Equal(t, "ann@blog.dev", user["email"])
	assert.NotContains(t, user, "password")

	rec = env.do(t, http.MethodPost, "/auth/signup", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"email": "already exists"}, decodeError(t, rec).Error.Details)

	token, _ := env.login(t, "ann@blog.dev", "secret1")
	me := env.do(t, http.MethodGet, "/users/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"name":"user"`)
}

func TestSignup_PasswordByteLimit(t *testing.T) {
	env := newTestEnv(t, 0)

	long := strings.Repeat("é", 72)
	rec := env.do(t, http.MethodPost, "/auth/signup", map[string]string{"name": "Ann", "email": "ann@blog.dev", "password": long})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "Must be at most 72 bytes", decodeError(t, rec).Error.Details["password"])

	rec = env.do(t, http.MethodPost, "/auth/signup", map[string]string{"name": "Ann", "email": "ann@blog.dev", "password": strings.Repeat("é", 36)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestTokenRefresh(t *testing.T) {
	env := newTestEnv(t, 0)
	env.addUser(t, "a@b.com", "secret", models.RoleUser)
	_, cookie := env.login(t, "a@b.com", "secret")

	rec := env.do(t, http.MethodGet, "/auth/token", nil, func(r *http.Request) { r.AddCookie(cookie) })
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["accessToken"])

	me := env.do(t, http.MethodGet, "/users/me", nil, bearer(resp["accessToken"]))
	require.Equal(t, http.StatusOK, me.Code)

	t.Run("trusted origin", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/token", nil, func(r *http.Request) {
			r.AddCookie(cookie)
			r.Header.Set(echo.HeaderOrigin, "https://blog.example.com")
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("foreign origin", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/token", nil, func(r *http.Request) {
			r.AddCookie(cookie)
			r.Header.Set(echo.HeaderOrigin, "https://evil.example")
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing cookie", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/token", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/token", nil, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: cookie.Value + "x"})
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, 0)
	rec := env.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	setCookie := rec.Header().Get(echo.HeaderSetCookie)
	assert.Contains(t, setCookie, auth.RefreshCookieName+"=;")
	assert.Contains(t, setCookie, "Max-Age=0")
}

func TestBearerHeader(t *testing.T) {
	env := newTestEnv(t, 0)
	env.addUser(t, "a@b.com", "secret", models.RoleUser)
	token, _ := env.login(t, "a@b.com", "secret")

	cases := map[string]string{
		"missing":     "",
		"no scheme":   token,
		"lower case":  "bearer " + token,
		"empty token": "Bearer ",
		"garbage":     "Bearer abc.def.ghi",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/users/me", nil, func(r *http.Request) {
				if header != "" {
					r.Header.Set(echo.HeaderAuthorization, header)
				}
			})
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	rec := env.do(t, http.MethodGet, "/users/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPermissionGate(t *testing.T) {
	env := newTestEnv(t, 0)
	env.addUser(t, "reader@b.com", "secret", models.RoleUser)
	env.addUser(t, "admin@b.com", "secret", models.RoleAdmin)
	reader, _ := env.login(t, "reader@b.com", "secret")
	admin, _ := env.login(t, "admin@b.com", "secret")

	tag := map[string]string{"name": "Go"}

	rec := env.do(t, http.MethodPost, "/tags", tag)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/tags", tag, bearer(reader))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/tags", tag, bearer(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"slug":"go"`)

	rec = env.do(t, http.MethodGet, "/users/1", nil, bearer(reader))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, "/users/1", nil, bearer(reader))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestValidationRunsBeforeAuthentication(t *testing.T) {
	env := newTestEnv(t, 0)

	rec := env.do(t, http.MethodPut, "/posts/abc", map[string]any{"title": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeError(t, rec).Error.Details
	assert.Equal(t, "Invalid value", details["id"])
	assert.Equal(t, "Required", details["title"])
	assert.Equal(t, "Required", details["body"])

	rec = env.do(t, http.MethodGet, "/posts?pageSize=500&tags=Not_A_Slug", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details = decodeError(t, rec).Error.Details
	assert.Contains(t, details, "pageSize")
	assert.Contains(t, details, "tags[0]")
}

func TestPaging(t *testing.T) {
	env := newTestEnv(t, 0)

	for _, path := range []string{"/posts?page=0", "/posts/search?q=go&page=0", "/posts/1/comments?page=0"} {
		rec := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "Must be greater than or equal to 1", decodeError(t, rec).Error.Details["page"], path)
	}

	rec := env.do(t, http.MethodGet, "/posts?pageSize=0", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Details, "pageSize")

	rec = env.do(t, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Meta struct {
			Page     int `json:"page"`
			PageSize int `json:"pageSize"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Meta.Page)
	assert.Equal(t, 10, page.Meta.PageSize)
}

func TestPostsFlow(t *testing.T) {
	env := newTestEnv(t, 0)
	env.addUser(t, "admin@b.com", "secret", models.RoleAdmin)
	env.addUser(t, "reader@b.com", "secret", models.RoleUser)
	admin, _ := env.login(t, "admin@b.com", "secret")
	reader, _ := env.login(t, "reader@b.com", "secret")

	rec := env.do(t, http.MethodPost, "/posts", map[string]any{"title": " Hello Go ", "body": "some words here"}, bearer(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "Hello Go", post.Title)
	assert.Nil(t, post.PublishedAt)
	path := "/posts/" + jsonID(post.ID)

	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil).Code)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil, bearer(reader)).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, nil, bearer(admin)).Code)
	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/posts?unpublished=true", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/posts?unpublished=true", nil, bearer(admin)).Code)

	rec = env.do(t, http.MethodPost, path+"/comments", map[string]string{"body": "first"}, bearer(admin))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, path+"/publish", nil, bearer(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, nil).Code)

	rec = env.do(t, http.MethodPost, path+"/comments", map[string]string{"body": "first"}, bearer(reader))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/posts?page=1&pageSize=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data []models.Post `json:"data"`
		Meta struct {
			Page     int   `json:"page"`
			PageSize int   `json:"pageSize"`
			Total    int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.EqualValues(t, 1, page.Data[0].CommentsCount)
	assert.Equal(t, 5, page.Meta.PageSize)
	assert.EqualValues(t, 1, page.Meta.Total)

	rec = env.do(t, http.MethodGet, "/posts/search?q=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"database"`)
	assert.Contains(t, rec.Body.String(), `"title":"Hello Go"`)

	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/posts/search", nil).Code)

	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, nil, bearer(reader)).Code)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, path, nil, bearer(admin)).Code)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil, bearer(admin)).Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 0)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil).Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, 0)
	rec := env.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeError(t, rec).Error.Message)
}

func jsonID(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestCORSConfig(t *testing.T) {
	preflight := func(origins []string, from string) *httptest.ResponseRecorder {
		e := echo.New()
		e.Use(middleware.CORSWithConfig(CORSConfig(origins)))
		e.GET("/auth/token", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		req := httptest.NewRequest(http.MethodOptions, "/auth/token", nil)
		req.Header.Set(echo.HeaderOrigin, from)
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight(nil, "https://evil.example.com")
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowCredentials))

	rec = preflight([]string{"https://blog.example.com"}, "https://blog.example.com")
	assert.Equal(t, "https://blog.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))

	rec = preflight([]string{"https://blog.example.com"}, "https://evil.example.com")
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
