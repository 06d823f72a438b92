// Package validation runs struct-tag validation and reports failures as
// field level messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"eshop/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var mobilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^((\+?20)|0)?1[0125]\d{8}$`), // EG
	regexp.MustCompile(`^((\+?966)|0)?5\d{8}$`),      // SA
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("mobile", validMobile); err != nil {
		panic(err)
	}

	return v
}

func validMobile(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	for _, p := range mobilePatterns {
		if p.MatchString(phone) {
			return true
		}
	}
	return false
}

// Struct validates v. Constraint violations come back as an apperr
// validation error carrying one message per field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return apperr.Validation(FormatValidationError(verrs))
}

func FormatValidationError(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		field := fieldPath(e)
		out[field] = message(field, e)
	}
	return out
}

// fieldPath drops the struct name from the namespace: shippingAddress.city.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func message(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "min", "max":
		bound := "at least"
		if e.Tag() == "max" {
			bound = "at most"
		}
		switch e.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s %s characters", field, bound, e.Param())
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("%s must contain %s %s items", field, bound, e.Param())
		}
		return fmt.Sprintf("%s must be %s %s", field, bound, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, e.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be lower than %s", field, lowerFirst(e.Param()))
	case "eqfield":
		return "Password Confirmation incorrect"
	case "email":
		return "Invalid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, e.Param())
	case "mobile":
		return "Invalid phone number! Only Egyptian and Saudi numbers are accepted."
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
