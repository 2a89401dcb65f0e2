// Package validation checks form input structs and turns the first failure
// into a message fit for a flash notice.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/model"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("item_status", func(fl validator.FieldLevel) bool {
		_, err := model.ParseStatus(fl.Field().String())
		return err == nil
	})
	must("item_category", func(fl validator.FieldLevel) bool {
		_, err := model.ParseCategory(fl.Field().String())
		return err == nil
	})
	must("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates s. A failed check is returned as an apperror Validation
// error describing the first offending field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.NewInternal("validating input", err)
	}
	return apperror.NewValidation(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "Please fill in all required fields."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", field, fe.Param())
	case "email":
		return "Please enter a valid email address."
	case "eqfield":
		return "Passwords do not match."
	case "datetime":
		return "Invalid date format."
	case "item_status":
		return "Status must be lost or found."
	case "item_category":
		return "Please choose a valid category."
	case "username":
		return "Username may only contain letters, digits and the characters . _ -"
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}
