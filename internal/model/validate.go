package model

import "github.com/go-playground/validator/v10"

// NewValidator returns a validator with the "category" rule registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return ValidCategories[fl.Field().String()]
	})
	return v
}
