package service

import (
	"errors"
	"strings"

	"storefront/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct runs struct tag validation and reports the first failure as a ValidationError
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &domain.ValidationError{Field: field, Message: field + " is required"}
	case "email":
		return &domain.ValidationError{Field: field, Message: "must be a valid email address"}
	default:
		return &domain.ValidationError{Field: field, Message: "failed " + fe.Tag() + " validation"}
	}
}
