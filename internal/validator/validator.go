// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"myfund/internal/bankcsv"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("bank", validateBank)
	}
}

func validateBank(fl validator.FieldLevel) bool {
	return bankcsv.IsSupported(bankcsv.Bank(fl.Field().String()))
}
