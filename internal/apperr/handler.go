package apperr

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/logging"
)

const pgUniqueViolation = "23505"

var (
	sqliteUniqueRe = regexp.MustCompile(`UNIQUE constraint failed: \w+\.(\w+)`)
	pgDetailKeyRe  = regexp.MustCompile(`Key \((\w+)\)=`)
)

type body struct {
	Error payload `json:"error"`
}

type payload struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Handler is installed as echo's HTTPErrorHandler and is the only place that writes
// error responses.
func Handler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		l := logging.FromContext(c.Request().Context())

		status, p := resolve(err, production)
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("request_failed", "status", status, "error", err)
		default:
			l.Warn("request_rejected", "status", status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body{Error: p})
		}
		if err != nil {
			l.Error("error_response_write_failed", "error", err)
		}
	}
}

// resolve maps any error onto a status code and wire payload.
func resolve(err error, production bool) (int, payload) {
	ae := Classify(err)
	if ie, ok := ae.(*InternalError); ok {
		p := payload{Message: msgInternal}
		if !production && ie.Cause != nil {
			p.Details = map[string]string{"cause": ie.Cause.Error()}
		}
		return ie.StatusCode(), p
	}

	var he *echo.HTTPError
	if errors.As(ae, &he) {
		return he.Code, payload{Message: httpErrorMessage(he)}
	}

	te := ae.(Error)
	return te.StatusCode(), payload{Message: te.Error(), Details: te.Details()}
}

// Classify rewraps foreign errors into a taxonomy kind. Framework errors whose status has
// no kind of its own (405, 413, 429, ...) are returned unchanged.
func Classify(err error) error {
	var ae Error
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("")
	}
	if field, ok := uniqueViolation(err); ok {
		return UniqueConstraint(field)
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = FieldMessage(fe)
		}
		return Validation(fields)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := httpErrorMessage(he)
		switch he.Code {
		case http.StatusBadRequest:
			return Validation(map[string]string{"request": msg})
		case http.StatusUnauthorized:
			return Unauthorized(msg)
		case http.StatusForbidden:
			return Forbidden(msg)
		case http.StatusNotFound:
			return NotFound(msg)
		case http.StatusInternalServerError:
			return Internal(err)
		}
		return he
	}

	return Internal(err)
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if m := pgDetailKeyRe.FindStringSubmatch(pgErr.Detail); m != nil {
			return m[1], true
		}
		return pgErr.ColumnName, true
	}
	if m := sqliteUniqueRe.FindStringSubmatch(err.Error()); m != nil {
		return m[1], true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

func httpErrorMessage(he *echo.HTTPError) string {
	if s, ok := he.Message.(string); ok && s != "" {
		return s
	}
	if t := http.StatusText(he.Code); t != "" {
		return t
	}
	return strings.TrimSpace(he.Error())
}
