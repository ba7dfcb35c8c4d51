package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/enewspaper/newsroom/internal/core/domain"
)

// Form messages shown next to the offending field.
const (
	msgUsernameChars    = "Only letters and numbers are allowed."
	msgUsernameRange    = "Username must be in range of 4-30 characters."
	msgUsernameTaken    = "Username already existed."
	msgEmailInvalid     = "Email is not valid."
	msgEmailTaken       = "Email already existed."
	msgPasswordRange    = "Password must be in range of 4-30 characters."
	msgPasswordBytes    = "Password is too long."
	msgPasswordMismatch = "Password confirmation does not match."
	msgCategoryName     = "Category name must be in range of 2-60 characters."
	msgCategoryOrder    = "Display order must not be negative."
	msgCategoryTaken    = "Category already existed."
)

// fieldMessages maps field -> validator tag -> message. The "" tag is the
// fallback for the field.
var fieldMessages = map[string]map[string]string{
	"username": {
		"alphanum": msgUsernameChars,
		"":         msgUsernameRange,
	},
	"email":            {"": msgEmailInvalid},
	"password": {
		"bcrypt": msgPasswordBytes,
		"":       msgPasswordRange,
	},
	"confirm_password": {"": msgPasswordMismatch},
	"name":             {"": msgCategoryName},
	"display_order":    {"": msgCategoryOrder},
}

// bcryptMaxBytes is the longest input bcrypt accepts. The min/max rules
// count runes, so multi-byte passwords can pass them and still exceed it.
const bcryptMaxBytes = 72

// newValidator returns a validator that reports fields by their form (or
// json) name. The "bcrypt" tag rejects strings bcrypt cannot hash.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	}); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// validateStruct runs v against s and collects the first failure per field.
func validateStruct(v *validator.Validate, s any) *domain.ValidationError {
	verr := domain.NewValidationError()
	err := v.Struct(s)
	if err == nil {
		return verr
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		verr.Add("form", err.Error())
		return verr
	}
	for _, fe := range ve {
		verr.Add(fe.Field(), fieldMessage(fe.Field(), fe.Tag()))
	}
	return verr
}

func fieldMessage(field, tag string) string {
	msgs, ok := fieldMessages[field]
	if !ok {
		return field + " is not valid."
	}
	if m, ok := msgs[tag]; ok {
		return m
	}
	return msgs[""]
}

// normalizeEmail trims and lower-cases an address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
