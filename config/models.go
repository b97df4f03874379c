package config

// Model family names accepted by Config.Chat.
const (
	FamilyGLM3 = "glm-3"
	FamilyGLM4 = "glm-4"
)

// Section names as they appear in the config file.
const (
	SectionGLM3     = "ai_config_glm3"
	SectionGLM4     = "ai_config_glm4"
	SectionGLM4V    = "ai_config_glm4v"
	SectionCogView3 = "cogview_config_3"
)

// ChatModel parameterizes text chat requests (sync, async and stream).
// The sampling parameters are pointers so that an absent key fails
// validation instead of decoding to zero.
type ChatModel struct {
	LanguageModel string   `mapstructure:"language_model" validate:"required"`
	SystemRole    string   `mapstructure:"system_role" validate:"required"`
	SystemContent string   `mapstructure:"system_content"`
	UserRole      string   `mapstructure:"user_role" validate:"required"`
	AssistantRole string   `mapstructure:"assistant_role" validate:"required"`
	MaxTokens     *int     `mapstructure:"max_tokens" validate:"required,gte=0"`
	Temperature   *float64 `mapstructure:"temp_float" validate:"required,gte=0,lte=2"`
	TopP          *float64 `mapstructure:"top_p_float" validate:"required,gte=0,lte=1"`
}

// VisionModel parameterizes image understanding requests.
type VisionModel struct {
	Model    string `mapstructure:"model" validate:"required"`
	UserRole string `mapstructure:"user_role" validate:"required"`
}

// ImageModel parameterizes image generation requests.
type ImageModel struct {
	Model string `mapstructure:"model" validate:"required"`
}
