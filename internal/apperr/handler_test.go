package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type account struct {
	Email string `validate:"required,email"`
	Name  string `validate:"max=3"`
}

func TestClassify_ValidatorErrorsUseFieldMessages(t *testing.T) {
	err := validator.New().Struct(account{Name: "toolong"})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(Classify(fmt.Errorf("save account: %w", err)), &ve))
	assert.Equal(t, map[string]string{
		"Email": "Required",
		"Name":  "Must contain at most 3 character(s)",
	}, ve.Fields)
}

func TestHandler_Body(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound, ""},
		{"forbidden", Forbidden("Invalid origin"), http.StatusForbidden, `"message":"Invalid origin"`},
		{"framework 429", echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests, `"message":"slow down"`},
		{"internal hidden", errors.New("db exploded"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			Handler(true)(tc.err, c)

			require.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
			assert.NotContains(t, rec.Body.String(), "db exploded")
		})
	}
}
