// Package validate configures the struct validator shared by request
// decoding and content import, and turns its errors into field errors
// keyed by JSON path.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

// New returns a validator that names fields after their JSON tags and
// knows the custom tags:
//
//	category    a category code or slug
//	difficulty  a difficulty code or name
//	money       a positive decimal with at most two fractional digits
//	qtype       a question type code or slug
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseCategory(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "difficulty", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDifficulty(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "qtype", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseQuestionType(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "money", func(fl validator.FieldLevel) bool {
		d, err := domain.ParseMoney(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %q validation: %v", tag, err))
	}
}

// FieldErrors converts validator errors into domain validation errors.
// Field names are JSON paths relative to the validated struct, e.g.
// "expenses[1].amount". Other errors are returned as a single error with
// an empty field.
func FieldErrors(err error) domain.ValidationErrors {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ValidationErrors{domain.NewValidationError("", err.Error(), domain.ErrValidation)}
	}
	out := make(domain.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), Message(fe), errorFor(fe.Tag()))
	}
	return out
}

// fieldPath drops the root struct name from a namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func errorFor(tag string) error {
	switch tag {
	case "category":
		return domain.ErrInvalidCategory
	case "difficulty":
		return domain.ErrInvalidDifficulty
	case "qtype":
		return domain.ErrInvalidQuestionType
	case "money":
		return domain.ErrInvalidAmount
	default:
		return domain.ErrValidation
	}
}

// Message maps a validation failure to a user-facing message.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must contain exactly %s items", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "category":
		return "must be one of BUD, INV, SAV, BAL, CRD, TAX"
	case "difficulty":
		return "must be one of B, I, A"
	case "qtype":
		return "must be one of MC, FIB, MAD, FC, BS"
	case "money":
		return "must be a positive amount with at most 2 decimal places"
	default:
		return "is invalid"
	}
}
