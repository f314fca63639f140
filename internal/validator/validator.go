// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("time_range", validateTimeRange)
		_ = v.RegisterValidation("weekday", validateWeekday)
		_ = v.RegisterValidation("reps_unit", validateRepsUnit)
		_ = v.RegisterValidation("trash_type", validateTrashType)
		_ = v.RegisterValidation("notblank", validateNotBlank)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateTimeRange(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly", "annually", "all":
		return true
	}
	return false
}

func validateWeekday(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday":
		return true
	}
	return false
}

func validateRepsUnit(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "reps", "seconds", "minutes", "hours":
		return true
	}
	return false
}

func validateTrashType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "goal", "workout", "transaction", "journal":
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
