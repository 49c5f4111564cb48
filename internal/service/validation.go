package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/edu-markaz/center-api/pkg/phone"
)

// NewValidator builds the shared validator with the custom phone rule
// registered. Request DTOs tag Uzbek numbers with `uzphone`.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("uzphone", func(fl validator.FieldLevel) bool {
		return phone.Valid(phone.Normalize(fl.Field().String()))
	})
	return v
}
