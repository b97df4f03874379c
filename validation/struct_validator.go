package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/glmkit/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Config structs are decoded by viper, so mapstructure names match the file keys.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"mapstructure", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})
	})
	return validate
}

// Validate validates a struct using struct tags and reports failures as INVALID_INPUT.
func Validate(s any) error {
	fields, err := check(s)
	if err != nil {
		return errors.InvalidInput(err.Error())
	}
	if len(fields) == 0 {
		return nil
	}
	appErr := errors.InvalidInput(joinMessages(fields))
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}

// ValidateSection validates a configuration section. A missing required field is
// reported by name; any other failure is a CONFIG_READ_ERROR listing every field.
func ValidateSection(section string, s any) error {
	fields, err := check(s)
	if err != nil {
		return errors.ConfigRead(section, err)
	}
	if len(fields) == 0 {
		return nil
	}
	if len(fields) == 1 && fields[0].Tag == "required" {
		return errors.MissingField(section, fields[0].Field)
	}
	appErr := errors.ConfigRead(section, nil)
	appErr.Message = section + ": " + joinMessages(fields)
	appErr.Details["fields"] = fields
	return appErr
}

func check(s any) ([]FieldError, error) {
	err := getValidator().Struct(s)
	if err == nil {
		return nil, nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, err
	}
	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: formatValidationError(e),
		})
	}
	return fieldErrors, nil
}

func joinMessages(fields []FieldError) string {
	messages := make([]string, 0, len(fields))
	for _, f := range fields {
		messages = append(messages, f.Field+": "+f.Message)
	}
	return strings.Join(messages, "; ")
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// toSnakeCase converts a field name to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32) // lowercase
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
