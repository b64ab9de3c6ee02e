package util

import (
	"github.com/go-playground/validator/v10"
)

// ValidatePositiveAmount 验证金额是否为正数
func ValidatePositiveAmount(fl validator.FieldLevel) bool {
	amount, ok := fl.Field().Interface().(float64)
	if !ok {
		return false
	}
	return amount > 0
}
