// Package config loads glmkit configuration.
//
// Configuration comes from a TOML file (YAML and JSON also work, chosen by
// extension) read with viper, an optional .env file loaded with godotenv,
// and GLM_* environment variables that override file values
// (GLM_API_BASE_URL overrides api.base_url).
//
// Model parameters live in one array-of-tables section per family; the first
// entry of a section is the one used:
//
//	[[ai_config_glm4]]
//	language_model = "glm-4"
//	system_role = "system"
//	system_content = "You are a helpful assistant."
//	user_role = "user"
//	assistant_role = "assistant"
//	max_tokens = 1024
//	temp_float = 0.9
//	top_p_float = 0.7
//
// # Usage
//
//	cfg, err := config.Load("config.toml")
//	chat, err := cfg.Chat(config.FamilyGLM4)
package config
