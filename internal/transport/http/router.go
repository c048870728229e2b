package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/handlers"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/middleware/origin"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/transport"
	"github.com/Skotchmaster/blog_api/internal/validate"
)

type Deps struct {
	Validator *validate.Validator
	Auth      *auth.Registry

	// TrustedOrigins may call the cookie-authenticated token endpoint.
	TrustedOrigins []string
	// LoginPerMinute caps login attempts per client IP. Zero disables the limit.
	LoginPerMinute int

	Health   *handlers.HealthHandler
	Sessions *handlers.AuthHandler
	Users    *handlers.UserHandler
	Posts    *handlers.PostHandler
	Comments *handlers.CommentHandler
	Tags     *handlers.TagHandler
}

// Register mounts every route. Each route lists its stages in execution order:
// validation, authentication, authorization and then the handler.
func Register(e *echo.Echo, d *Deps) {
	v := d.Validator
	bearer := d.Auth.Authenticate(auth.Bearer)
	optional := d.Auth.Authenticate(auth.Bearer, auth.Anonymous)
	can := auth.RequirePermission

	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)

	a := e.Group("/auth")
	a.POST("/login", d.Sessions.Login,
		loginLimiter(d.LoginPerMinute),
		validate.Schema[transport.LoginRequest](v),
		d.Auth.Authenticate(auth.Local))
	a.POST("/signup", validate.Handler(d.Sessions.Signup),
		validate.Schema[transport.SignupRequest](v))
	a.GET("/token", d.Sessions.Token,
		origin.Trusted(d.TrustedOrigins),
		d.Auth.Authenticate(auth.Refresh))
	a.POST("/logout", d.Sessions.Logout)

	u := e.Group("/users")
	u.GET("/me", d.Users.Me, bearer)
	u.GET("/:id", validate.Handler(d.Users.Get),
		validate.Schema[transport.UserRequest](v), bearer, can(models.PermRead))
	u.PUT("/:id", validate.Handler(d.Users.Update),
		validate.Schema[transport.UpdateUserRequest](v), bearer, can(models.PermUpdate))
	u.DELETE("/:id", validate.Handler(d.Users.Delete),
		validate.Schema[transport.UserRequest](v), bearer, can(models.PermDelete))

	p := e.Group("/posts")
	p.GET("", validate.Handler(d.Posts.List),
		validate.Schema[transport.ListPostsRequest](v), optional)
	p.GET("/search", validate.Handler(d.Posts.SearchPosts),
		validate.Schema[transport.SearchPostsRequest](v))
	p.GET("/:id", validate.Handler(d.Posts.Get),
		validate.Schema[transport.PostRequest](v), optional)
	p.POST("", validate.Handler(d.Posts.Create),
		validate.Schema[transport.CreatePostRequest](v), bearer, can(models.PermCreate))
	p.PUT("/:id", validate.Handler(d.Posts.Update),
		validate.Schema[transport.UpdatePostRequest](v), bearer, can(models.PermUpdate))
	p.POST("/:id/publish", validate.Handler(d.Posts.Publish),
		validate.Schema[transport.PostRequest](v), bearer, can(models.PermUpdate))
	p.POST("/:id/hide", validate.Handler(d.Posts.Hide),
		validate.Schema[transport.PostRequest](v), bearer, can(models.PermUpdate))
	p.DELETE("/:id", validate.Handler(d.Posts.Delete),
		validate.Schema[transport.PostRequest](v), bearer, can(models.PermDelete))

	p.GET("/:id/comments", validate.Handler(d.Comments.List),
		validate.Schema[transport.ListCommentsRequest](v), optional)
	p.POST("/:id/comments", validate.Handler(d.Comments.Create),
		validate.Schema[transport.CreateCommentRequest](v), bearer)

	cm := e.Group("/comments")
	cm.PUT("/:id", validate.Handler(d.Comments.Update),
		validate.Schema[transport.UpdateCommentRequest](v), bearer)
	cm.DELETE("/:id", validate.Handler(d.Comments.Delete),
		validate.Schema[transport.CommentRequest](v), bearer)

	t := e.Group("/tags")
	t.GET("", d.Tags.List)
	t.GET("/:id", validate.Handler(d.Tags.Get),
		validate.Schema[transport.TagRequest](v))
	t.POST("", validate.Handler(d.Tags.Create),
		validate.Schema[transport.CreateTagRequest](v), bearer, can(models.PermCreate))
	t.PUT("/:id", validate.Handler(d.Tags.Update),
		validate.Schema[transport.UpdateTagRequest](v), bearer, can(models.PermUpdate))
	t.DELETE("/:id", validate.Handler(d.Tags.Delete),
		validate.Schema[transport.TagRequest](v), bearer, can(models.PermDelete))
}

// CORSConfig allows credentialed requests only from the listed origins. Without origins
// any site may read public responses but browsers will not send the refresh cookie.
func CORSConfig(origins []string) middleware.CORSConfig {
	cfg := middleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"*"}
		return cfg
	}
	cfg.AllowCredentials = true
	return cfg
}

func loginLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperr.Internal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts")
		},
	})
}
