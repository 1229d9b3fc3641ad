// Package validation checks registration forms before any remote call is made.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern     = regexp.MustCompile(`^[0-9]{10}$`)
	regNumberPattern = regexp.MustCompile(`^[A-Z0-9]{4,20}$`)
)

// FieldErrors maps a JSON field name to a human readable message
type FieldErrors map[string]string

// Fields returns the offending field names in sorted order
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validator wraps validator/v10 with the registration specific tags
type Validator struct {
	validate    *validator.Validate
	departments map[string]bool
}

// New creates a validator; departments is the fixed list accepted by the "department" tag.
// An empty list accepts any department code.
func New(departments []string) *Validator {
	v := &Validator{
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		departments: make(map[string]bool, len(departments)),
	}
	for _, d := range departments {
		v.departments[strings.ToUpper(strings.TrimSpace(d))] = true
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// registration of static tags cannot fail
	_ = v.validate.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("regno", func(fl validator.FieldLevel) bool {
		return regNumberPattern.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		code := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
		if len(v.departments) == 0 {
			return code != ""
		}
		return v.departments[code]
	})

	return v
}

// IsPhone reports whether s is exactly ten ASCII digits
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Struct validates a form and returns nil when it is valid
func (v *Validator) Struct(form any) FieldErrors {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return FieldErrors{"_": err.Error()}
	}

	out := make(FieldErrors, len(ve))
	for _, fe := range ve {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone10":
		return "must be exactly 10 digits"
	case "regno":
		return "must be 4-20 letters or digits"
	case "department":
		return "must be one of the listed departments"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
