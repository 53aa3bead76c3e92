package validators

import (
	"faceid/cmd/internal/utils"

	"github.com/go-playground/validator/v10"
)

// Cpf accepts formatted input ("123.456.789-01"); the field is valid
// when exactly 11 digits remain after cleanup.
func Cpf(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return utils.IsCPFValid(utils.CleanCPF(val))
}

// DataURL checks the shape of a base64 data-URL capture. Decoding
// failures are still caught later by utils.DecodeDataURL.
func DataURL(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return utils.IsDataURL(val)
}
