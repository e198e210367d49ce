package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate reports violations under the payload field names (json tags), so
// transport-level errors address the same fields as service-level ones.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}()

// Struct validates a request struct.
func Struct(s any) error {
	return validate.Struct(s)
}
