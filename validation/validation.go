// Package validation turns request binding failures and password policy
// violations into per-field error messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Fields maps a JSON field name to its error messages.
type Fields map[string][]string

func (f Fields) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

var registerOnce sync.Once

// Register makes gin's validator report JSON and form field names instead of Go names.
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(fieldName)
		}
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// FromBinding converts the error returned by ShouldBind* into field messages.
// ok is false when err is not a validation failure (malformed JSON for example).
func FromBinding(err error) (Fields, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := Fields{}
	for _, fe := range verrs {
		fields.Add(fe.Field(), message(fe))
	}
	return fields, true
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	case "datetime":
		return fmt.Sprintf("Date has wrong format. Use %s.", fe.Param())
	case "dive", "gt":
		return "Ensure this value is valid."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
