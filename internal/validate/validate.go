// Package validate parses path, query and body data of a request against a declared
// schema and hands the normalized result to handlers as a typed value.
//
// A schema is a Request instantiation:
//
//	type UpdatePost = validate.Request[PostIDParams, validate.None, PostBody]
//
// Path and query fields are coerced from strings (tags "param" and "query"), the body is
// decoded as JSON (tag "json"). Every part is then normalized with "mod" tags (trim,
// lcase, default=...) and checked with "validate" tags.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apperr"
)

const inputKey = "validated_input"

// bcryptMaxBytes is the longest input bcrypt hashes. The "max" rule counts runes.
const bcryptMaxBytes = 72

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// None marks an absent part of a schema.
type None struct{}

type Request[P, Q, B any] struct {
	Params P
	Query  Q
	Body   B
}

func (r *Request[P, Q, B]) parts() (params, query, body any) {
	return &r.Params, &r.Query, &r.Body
}

type schema interface {
	parts() (params, query, body any)
}

// Validator is built once at startup and shared by every route.
type Validator struct {
	validate *validator.Validate
	conform  *mold.Transformer
	params   *form.Decoder
	query    *form.Decoder
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	})

	params := form.NewDecoder()
	params.SetTagName("param")
	params.SetMode(form.ModeExplicit)

	query := form.NewDecoder()
	query.SetTagName("query")
	query.SetMode(form.ModeExplicit)

	return &Validator{
		validate: v,
		conform:  modifiers.New(),
		params:   params,
		query:    query,
	}
}

// Schema returns the validation stage of a route. On success the parsed T is stored on
// the context and read back with Input; on failure a *apperr.ValidationError is returned
// and the chain stops.
func Schema[T any, PT interface {
	*T
	schema
}](v *Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			in := PT(new(T))
			if err := v.Parse(c, in); err != nil {
				return err
			}
			c.Set(inputKey, (*T)(in))
			return next(c)
		}
	}
}

// Input returns the value stored by Schema. Every read returns the same pointer.
func Input[T any](c echo.Context) (*T, bool) {
	in, ok := c.Get(inputKey).(*T)
	return in, ok
}

// Handler adapts fn so the parsed input arrives as an argument instead of being read from
// the context.
func Handler[T any](fn func(c echo.Context, in *T) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		in, ok := Input[T](c)
		if !ok {
			return apperr.Internal(errors.New("route has no validation stage for its input"))
		}
		return fn(c, in)
	}
}

// Parse fills s from the request. All field problems are collected before returning.
func (v *Validator) Parse(c echo.Context, s schema) error {
	ctx := c.Request().Context()
	params, query, body := s.parts()
	fields := make(map[string]string)

	if err := v.params.Decode(params, pathValues(c)); err != nil {
		decodeIssues(fields, err)
	}
	if err := v.query.Decode(query, c.QueryParams()); err != nil {
		decodeIssues(fields, err)
	}
	if _, none := body.(*None); !none {
		bodyIssues(fields, decodeBody(c, body))
	}

	for _, part := range []any{params, query, body} {
		if err := v.conform.Struct(ctx, part); err != nil {
			return apperr.Internal(fmt.Errorf("normalize request: %w", err))
		}
		if err := v.validate.StructCtx(ctx, part); err != nil {
			var ve validator.ValidationErrors
			if !errors.As(err, &ve) {
				return apperr.Internal(fmt.Errorf("validate request: %w", err))
			}
			for _, fe := range ve {
				if _, decoded := fields[fe.Field()]; decoded {
					continue
				}
				fields[fe.Field()] = apperr.FieldMessage(fe)
			}
		}
	}

	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

func pathValues(c echo.Context) url.Values {
	names, values := c.ParamNames(), c.ParamValues()
	out := make(url.Values, len(names))
	for i, name := range names {
		if i < len(values) {
			out.Set(name, values[i])
		}
	}
	return out
}

func decodeIssues(fields map[string]string, err error) {
	var de form.DecodeErrors
	if !errors.As(err, &de) {
		fields["request"] = "Malformed parameters"
		return
	}
	for name := range de {
		fields[name] = "Invalid value"
	}
}

func decodeBody(c echo.Context, body any) error {
	req := c.Request()
	if req.ContentLength == 0 {
		return nil
	}
	ctype := req.Header.Get(echo.HeaderContentType)
	if ctype != "" && !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return errUnsupportedBody
	}
	err := c.Echo().JSONSerializer.Deserialize(c, body)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

var errUnsupportedBody = errors.New("unsupported body content type")

func bodyIssues(fields map[string]string, err error) {
	if err == nil {
		return
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		fields[ute.Field] = "Expected " + jsonKind(ute.Type)
		return
	}
	if errors.Is(err, errUnsupportedBody) {
		fields["body"] = "Expected application/json"
		return
	}
	fields["body"] = "Malformed JSON"
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Pointer:
		return jsonKind(t.Elem())
	}
	return t.String()
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query", "param"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return "-"
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
