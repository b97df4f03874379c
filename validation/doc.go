// Package validation checks configuration sections and user-supplied values.
//
// Struct tag validation (go-playground/validator) covers the model family
// sections read from the config file; field names in messages follow the
// mapstructure keys so they match what the user wrote.
//
//	type ChatModel struct {
//	    LanguageModel string `mapstructure:"language_model" validate:"required"`
//	}
//	err := validation.ValidateSection("ai_config_glm4", section)
//
// The programmatic Validator collects errors for values that do not come
// from a struct:
//
//	err := validation.NewWithCode(errors.ErrCodeAuth).
//	    Required("id", id).
//	    Required("secret", secret).
//	    Err()
package validation
