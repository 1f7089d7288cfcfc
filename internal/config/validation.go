package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("delimiter", validateDelimiter)
	return v
}

// Validate checks value ranges and enumerations of c.
func Validate(c *Global) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		return formatValidationErrors(validationErrors)
	}
	return fmt.Errorf("validation failed: %w", err)
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

func validateDelimiter(fl validator.FieldLevel) bool {
	_, ok := delimiters[fl.Field().String()]
	return ok
}

func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fe := range validationErrors {
		field := fe.StructField()
		switch fe.Tag() {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' must be %s %s, got '%v'\n", field, fe.Tag(), fe.Param(), fe.Value())
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "delimiter":
			fmt.Fprintf(&b, "- Field '%s' must be one of: auto, comma, semicolon, tab\n", field)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' must be one of: %s, got '%v'\n", field, fe.Param(), fe.Value())
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, fe.Tag())
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
