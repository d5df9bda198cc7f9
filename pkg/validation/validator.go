package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/altairlabs/user-management-api/pkg/apperr"
)

// Init configures the global validator used by Gin's binding:
// - error messages use JSON tag names
// - "username" is an alias for the alphanumeric-only rule
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterAlias("username", "alphanum")
	}
}

// fieldValidate is a standalone instance for validating single values inside
// the service layer, independent of request binding.
var fieldValidate = validator.New()

// Email checks the value against the validator's email grammar.
func Email(s string) error {
	if err := fieldValidate.Var(s, "required,email"); err != nil {
		return apperr.Validation("must be a valid email address")
	}
	return nil
}

// Username requires a non-empty, strictly alphanumeric value (no underscores,
// hyphens, or spaces).
func Username(s string) error {
	if err := fieldValidate.Var(s, "required,alphanum"); err != nil {
		return apperr.Validation("username must be alphanumeric")
	}
	return nil
}

// ToDetails converts binding/validation errors into a map[field]message
// suitable for the API error.details payload.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "alphanum", "username":
		return "must contain alphanumeric characters only"
	case "min":
		return "must be at least " + fe.Param() + " characters long"
	case "max":
		return "must be at most " + fe.Param() + " characters long"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	default:
		if fe.Param() != "" {
			return "validation failed for '" + fe.Tag() + "' with parameter '" + fe.Param() + "'"
		}
		return "validation failed for '" + fe.Tag() + "'"
	}
}
