package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	schoolIDTag   = "schoolid"
	schoolIDText  = "only letters, digits, dots, dashes and underscores are allowed"
	schoolIDRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}._-]+$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(schoolIDTag, schoolIDValidation)
	RegisterCustomTranslation(validate, translator, schoolIDTag, schoolIDText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidSchoolID reports whether id can be used as a school identifier (an email local part).
// School names in any script are accepted, e.g. "오류중학교".
func ValidSchoolID(id string) bool {
	return schoolIDRegex.MatchString(id)
}

// schoolIDValidation only allows characters usable in the local part of a sign-in email.
func schoolIDValidation(fl validator.FieldLevel) bool {
	return ValidSchoolID(fl.Field().String())
}
