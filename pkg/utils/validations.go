package utils

import (
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	Validator *validator.Validate
}

// RegisterOn adds the custom rules to an existing engine, e.g. gin's
// binding.Validator.Engine().
func RegisterOn(v *validator.Validate) {
	c := &CustomValidator{Validator: v}
	c.ValidatorRegistery()
}

func (c *CustomValidator) ValidatorRegistery() {
	c.Validator.RegisterValidation("isemail", c.IsValidEmail)
	c.Validator.RegisterValidation("isphone", c.IsValidPhone)
}

func (c *CustomValidator) IsValidEmail(fl validator.FieldLevel) bool {

	email := strings.TrimSpace(fl.Field().String())
	_, err := mail.ParseAddress(email)
	return err == nil
}

// IsValidPhone accepts anything carrying 7 to 15 digits (E.164 upper bound)
// once punctuation, spaces and "+" are removed.
func (c *CustomValidator) IsValidPhone(fl validator.FieldLevel) bool {
	phoneNumber := strings.TrimSpace(fl.Field().String())
	for _, r := range phoneNumber {
		if !strings.ContainsRune("0123456789+-() .", r) {
			return false
		}
	}
	digits := DigitsOnly(phoneNumber)
	return len(digits) >= 7 && len(digits) <= 15
}
