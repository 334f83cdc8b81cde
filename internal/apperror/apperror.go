// Package apperror provides utilities to handle and map custom validation errors.
package apperror

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	errRequired            = errors.New("is required")
	errMustBePositive      = errors.New("must be at least 1")
	errMustBeAtLeast2Chars = errors.New("must be at least 2 characters")
	errMustBeAtLeast3Chars = errors.New("must be at least 3 characters")
	errInvalidEmail        = errors.New("please enter a valid email address")
	errInvalidPhoneFormat  = errors.New("please enter a valid phone number")
	errInvalidURL          = errors.New("must be a valid URL")
)

var customErrors = map[string]error{
	"GiveawayEntry.Name.required":           errRequired,
	"GiveawayEntry.Name.min":                errMustBeAtLeast2Chars,
	"GiveawayEntry.Location.required":       errRequired,
	"GiveawayEntry.Location.min":            errMustBeAtLeast2Chars,
	"GiveawayEntry.PhoneNumber.required":    errRequired,
	"GiveawayEntry.PhoneNumber.phoneformat": errInvalidPhoneFormat,
	"GiveawayEntry.Email.required":          errRequired,
	"GiveawayEntry.Email.email":             errInvalidEmail,
	"Giveaway.Title.required":               errRequired,
	"Giveaway.Title.min":                    errMustBeAtLeast3Chars,
	"Giveaway.MaxParticipants.required":     errRequired,
	"Giveaway.MaxParticipants.gte":          errMustBePositive,
	"Giveaway.EndDate.required":             errRequired,
	"GiveawayPatch.Title.min":               errMustBeAtLeast3Chars,
	"GiveawayPatch.MaxParticipants.gte":     errMustBePositive,
	"Winner.Name.required":                  errRequired,
	"Winner.Name.min":                       errMustBeAtLeast2Chars,
	"Winner.GiveawayTitle.required":         errRequired,
	"Winner.DateWon.required":               errRequired,
	"Winner.ImageURL.url":                   errInvalidURL,
	"BlockRequest.IP.required":              errRequired,
	"LoginRequest.Password.required":        errRequired,
}

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{7,15}$`)

// PhoneValidator accepts digits, spaces, dashes and parentheses with an
// optional leading plus, 7 to 15 characters long.
var PhoneValidator = func(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

// NewValidator returns a validator with the custom tags registered and field
// names reported by their JSON tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phoneformat", PhoneValidator)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// CustomValidationError converts validator errors into a list of
// {field: message} maps.
func CustomValidationError(err error) []map[string]string {
	errList := make([]map[string]string, 0)

	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		for _, e := range validationErr {
			field := e.StructNamespace()
			key := field + "." + e.Tag()

			errMsg := fmt.Sprintf("%s is invalid", e.Field())
			if v, ok := customErrors[key]; ok {
				errMsg = v.Error()
			}

			errList = append(errList, map[string]string{e.Field(): errMsg})
		}
	}
	return errList
}
