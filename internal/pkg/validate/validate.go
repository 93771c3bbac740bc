package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator shared by the HTTP handlers.
// Initialised once at package load time; the built-in email and e164 tags
// cover every request shape, so no custom registrations are needed.
var v = validator.New()

// Struct validates the given struct using its validate tags. Returns an
// error whose text is safe to echo back in a 422 response, or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
