package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/models"
)

// caller returns the authenticated user of a route whose chain cannot end anonymously.
func caller(c echo.Context) (*models.User, error) {
	u, ok := auth.Identity(c)
	if !ok {
		return nil, apperr.Unauthorized("")
	}
	return u, nil
}

// viewer returns the user behind an optional identity, nil for anonymous requests.
func viewer(c echo.Context) *models.User {
	u, _ := auth.Identity(c)
	return u
}
