package apperr

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldMessage is the client-facing wording of a failed validator rule.
func FieldMessage(fe validator.FieldError) string {
	isText := fe.Kind() == reflect.String
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array

	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return "Required"
	case "email":
		return "Invalid email"
	case "bcryptlen":
		return "Must be at most 72 bytes"
	case "slug":
		return "Must contain only lowercase letters, digits and dashes"
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "min", "gte":
		switch {
		case isText:
			return fmt.Sprintf("Must contain at least %s character(s)", fe.Param())
		case isList:
			return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
		}
		return "Must be greater than or equal to " + fe.Param()
	case "max", "lte":
		switch {
		case isText:
			return fmt.Sprintf("Must contain at most %s character(s)", fe.Param())
		case isList:
			return fmt.Sprintf("Must contain at most %s item(s)", fe.Param())
		}
		return "Must be less than or equal to " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "lt":
		return "Must be less than " + fe.Param()
	case "len":
		return "Must have length " + fe.Param()
	case "eqfield":
		return "Must match " + fe.Param()
	}
	return "Invalid value"
}
