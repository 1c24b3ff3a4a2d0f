package security

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to the translation key of its error
type FieldErrors map[string]string

// FormValidator validates form structs and reports translation keys per field
type FormValidator struct {
	validate *validator.Validate
}

// NewFormValidator creates a validator that names fields by their form tag
func NewFormValidator() *FormValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &FormValidator{validate: v}
}

// Validate returns nil when input is valid
func (v *FormValidator) Validate(input any) FieldErrors {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return FieldErrors{"form": "validation.invalid"}
	}

	fields := make(FieldErrors, len(validationErrors))
	for _, e := range validationErrors {
		if _, seen := fields[e.Field()]; seen {
			continue
		}
		fields[e.Field()] = messageKey(e.Field(), e.Tag(), e.Param())
	}
	return fields
}

func messageKey(field, tag, param string) string {
	switch field {
	case "email":
		if tag == "required" {
			return "auth.validation.emailRequired"
		}
		return "auth.validation.emailInvalid"
	case "password":
		switch {
		case tag == "required":
			return "auth.validation.passwordRequired"
		case tag == "min" && param == "8":
			return "auth.validation.passwordMinLength8"
		case tag == "min":
			return "auth.validation.passwordMinLength"
		}
	case "fullName":
		if tag == "required" {
			return "auth.validation.fullNameRequired"
		}
		return "auth.validation.fullNameMinLength"
	case "confirmPassword":
		if tag == "required" {
			return "auth.validation.confirmPasswordRequired"
		}
		return "auth.validation.passwordsDoNotMatch"
	case "agreeToTerms":
		return "auth.validation.agreeToTermsRequired"
	}

	if tag == "required" {
		return "validation.required"
	}
	return "validation.invalid"
}
