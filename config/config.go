package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/glmkit/errors"
	"github.com/kbukum/glmkit/validation"
)

// Default values for the remote API and local files.
const (
	DefaultBaseURL       = "https://open.bigmodel.cn/api/paas/v4/"
	DefaultHistoryFile   = "chatglm_history.json"
	DefaultKeyFile       = "chatglm_api_key.txt"
	DefaultNTPServer     = "ntp.aliyun.com"
	DefaultAssistantName = "GLM"
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultPollAttempts  = 600
)

// Config is the complete glmkit configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API       APIConfig       `yaml:"api" mapstructure:"api"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Poll      PollConfig      `yaml:"poll" mapstructure:"poll"`
	Clock     ClockConfig     `yaml:"clock" mapstructure:"clock"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	AssistantName string `yaml:"assistant_name" mapstructure:"assistant_name"`
	KeyFile       string `yaml:"key_file" mapstructure:"key_file"`
	DefaultFamily string `yaml:"model" mapstructure:"model"`

	GLM3     []ChatModel   `yaml:"ai_config_glm3" mapstructure:"ai_config_glm3"`
	GLM4     []ChatModel   `yaml:"ai_config_glm4" mapstructure:"ai_config_glm4"`
	GLM4V    []VisionModel `yaml:"ai_config_glm4v" mapstructure:"ai_config_glm4v"`
	CogView3 []ImageModel  `yaml:"cogview_config_3" mapstructure:"cogview_config_3"`
}

// APIConfig locates the remote endpoints.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// PathsConfig holds endpoint paths relative to APIConfig.BaseURL.
type PathsConfig struct {
	Chat        string `yaml:"chat" mapstructure:"chat"`
	AsyncSubmit string `yaml:"async_submit" mapstructure:"async_submit"`
	AsyncResult string `yaml:"async_result" mapstructure:"async_result"`
	Images      string `yaml:"images" mapstructure:"images"`
}

// HistoryConfig locates the conversation log.
type HistoryConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Window int    `yaml:"window" mapstructure:"window"`
}

// PollConfig bounds async result polling.
type PollConfig struct {
	Interval    time.Duration `yaml:"interval" mapstructure:"interval"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Deadline    time.Duration `yaml:"deadline" mapstructure:"deadline"`
}

// ClockConfig selects the time source used for token timestamps.
type ClockConfig struct {
	UseNTP    bool          `yaml:"use_ntp" mapstructure:"use_ntp"`
	NTPServer string        `yaml:"ntp_server" mapstructure:"ntp_server"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// TelemetryConfig enables OpenTelemetry export.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.API.BaseURL, "/") {
		c.API.BaseURL += "/"
	}
	if c.API.Paths.Chat == "" {
		c.API.Paths.Chat = "chat/completions"
	}
	if c.API.Paths.AsyncSubmit == "" {
		c.API.Paths.AsyncSubmit = "async/chat/completions"
	}
	if c.API.Paths.AsyncResult == "" {
		c.API.Paths.AsyncResult = "async-result/"
	}
	if c.API.Paths.Images == "" {
		c.API.Paths.Images = "images/generations"
	}

	if c.History.Path == "" {
		c.History.Path = DefaultHistoryFile
	}
	if c.History.Window <= 0 {
		c.History.Window = 1
	}

	if c.Poll.Interval <= 0 {
		c.Poll.Interval = DefaultPollInterval
	}
	if c.Poll.MaxAttempts <= 0 {
		c.Poll.MaxAttempts = DefaultPollAttempts
	}

	if c.Clock.NTPServer == "" {
		c.Clock.NTPServer = DefaultNTPServer
	}
	if c.Clock.Timeout <= 0 {
		c.Clock.Timeout = 3 * time.Second
	}

	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}

	if c.AssistantName == "" {
		c.AssistantName = DefaultAssistantName
	}
	if c.KeyFile == "" {
		c.KeyFile = DefaultKeyFile
	}
	if c.DefaultFamily == "" {
		c.DefaultFamily = FamilyGLM4
	}
}

// Validate checks the fields every mode depends on. Model sections are
// validated lazily by Chat, Vision and Image so that a config carrying only
// one family stays usable.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return errors.ConfigRead("service", err)
	}
	v := validation.NewWithCode(errors.ErrCodeConfigRead).
		Required("api.base_url", c.API.BaseURL).
		Required("history.path", c.History.Path).
		Min("history.window", c.History.Window, 1).
		Min("poll.max_attempts", c.Poll.MaxAttempts, 1).
		OneOf("model", c.DefaultFamily, []string{FamilyGLM3, FamilyGLM4})
	return v.Err()
}

// Chat returns the chat section for family ("glm-3" or "glm-4").
func (c *Config) Chat(family string) (ChatModel, error) {
	var (
		section string
		entries []ChatModel
	)
	switch strings.ToLower(strings.TrimSpace(family)) {
	case FamilyGLM3:
		section, entries = SectionGLM3, c.GLM3
	case FamilyGLM4:
		section, entries = SectionGLM4, c.GLM4
	default:
		return ChatModel{}, errors.ConfigRead("model family", fmt.Errorf("unknown model family %q", family))
	}
	if len(entries) == 0 {
		return ChatModel{}, errors.ConfigRead(section, fmt.Errorf("section %s is not configured", section))
	}
	m := entries[0]
	if err := validation.ValidateSection(section, m); err != nil {
		return ChatModel{}, err
	}
	return m, nil
}

// Vision returns the image understanding section.
func (c *Config) Vision() (VisionModel, error) {
	if len(c.GLM4V) == 0 {
		return VisionModel{}, errors.ConfigRead(SectionGLM4V, fmt.Errorf("section %s is not configured", SectionGLM4V))
	}
	m := c.GLM4V[0]
	if err := validation.ValidateSection(SectionGLM4V, m); err != nil {
		return VisionModel{}, err
	}
	return m, nil
}

// Image returns the image generation section.
func (c *Config) Image() (ImageModel, error) {
	if len(c.CogView3) == 0 {
		return ImageModel{}, errors.ConfigRead(SectionCogView3, fmt.Errorf("section %s is not configured", SectionCogView3))
	}
	m := c.CogView3[0]
	if err := validation.ValidateSection(SectionCogView3, m); err != nil {
		return ImageModel{}, err
	}
	return m, nil
}

// Endpoint joins a path onto the base URL.
func (c *Config) Endpoint(path string) string {
	return strings.TrimSuffix(c.API.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
