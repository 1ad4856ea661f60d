package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ProviderClaude selects the Anthropic Messages API.
	ProviderClaude = "claude"
	// ProviderGemini selects Google Gemini.
	ProviderGemini = "gemini"

	// DefaultClaudeModel is used when models.generation is empty and the provider is Claude.
	DefaultClaudeModel = "claude-sonnet-4-20250514"
	// DefaultGeminiModel is used when models.generation is empty and the provider is Gemini.
	DefaultGeminiModel = "gemini-1.5-pro"

	defaultRevisionTimeout = 90
	defaultSessionTTL      = 60
	defaultPollTimeout     = 30
	defaultOutputDir       = "./results"
	defaultLogLevel        = "info"

	configDirName  = ".cv-coach"
	configFileName = "config.json"
)

// Config represents the application configuration.
type Config struct {
	Provider        string         `json:"provider" yaml:"provider" validate:"omitempty,oneof=claude gemini"`
	AnthropicAPIKey string         `json:"anthropic_api_key,omitempty" yaml:"anthropic_api_key,omitempty"`
	GeminiAPIKey    string         `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`
	Models          ModelsConfig   `json:"models,omitempty" yaml:"models,omitempty"`
	Telegram        TelegramConfig `json:"telegram" yaml:"telegram"`
	Review          ReviewConfig   `json:"review" yaml:"review"`
	Pandoc          PandocConfig   `json:"pandoc" yaml:"pandoc"`
	Defaults        DefaultConfig  `json:"defaults" yaml:"defaults"`
	Logging         LoggingConfig  `json:"logging" yaml:"logging"`
}

// ModelsConfig holds model selection.
type ModelsConfig struct {
	Generation string `json:"generation,omitempty" yaml:"generation,omitempty"`
}

// TelegramConfig holds bot settings.
type TelegramConfig struct {
	Token              string  `json:"token,omitempty" yaml:"token,omitempty"`
	AdminID            int64   `json:"admin_id,omitempty" yaml:"admin_id,omitempty" validate:"gte=0"`
	AllowedUsers       []int64 `json:"allowed_users,omitempty" yaml:"allowed_users,omitempty" validate:"dive,gt=0"`
	PollTimeoutSeconds int     `json:"poll_timeout_seconds,omitempty" yaml:"poll_timeout_seconds,omitempty" validate:"gte=0,lte=50"`
}

// ReviewConfig holds step-by-step review settings.
type ReviewConfig struct {
	PolishRevisions        *bool `json:"polish_revisions,omitempty" yaml:"polish_revisions,omitempty"`
	RevisionTimeoutSeconds int   `json:"revision_timeout_seconds,omitempty" yaml:"revision_timeout_seconds,omitempty" validate:"gte=0"`
	SessionTTLMinutes      int   `json:"session_ttl_minutes,omitempty" yaml:"session_ttl_minutes,omitempty" validate:"gte=0"`
}

// PandocConfig holds pandoc-related configuration. Both paths are optional.
type PandocConfig struct {
	TemplatePath string `json:"template_path,omitempty" yaml:"template_path,omitempty"`
	ClassFile    string `json:"class_file,omitempty" yaml:"class_file,omitempty"`
}

// DefaultConfig holds default values for commands.
type DefaultConfig struct {
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// LoggingConfig controls the root logger.
type LoggingConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// DefaultPath returns ~/.cv-coach/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}

	path = filepath.Join(homeDir, configDirName, configFileName)
	return path, err
}

// GetGenerationModel returns the generation model or the provider default.
func (c *Config) GetGenerationModel() (model string) {
	if c.Models.Generation != "" {
		model = c.Models.Generation
		return model
	}

	if c.Provider == ProviderGemini {
		model = DefaultGeminiModel
		return model
	}

	model = DefaultClaudeModel
	return model
}

// PolishRevisions reports whether user revisions go through the generation service.
func (c *Config) PolishRevisions() (polish bool) {
	polish = c.Review.PolishRevisions == nil || *c.Review.PolishRevisions
	return polish
}

// RevisionTimeout returns the per-revision timeout.
func (c *Config) RevisionTimeout() (d time.Duration) {
	d = time.Duration(c.Review.RevisionTimeoutSeconds) * time.Second
	return d
}

// SessionTTL returns how long an idle review is kept.
func (c *Config) SessionTTL() (d time.Duration) {
	d = time.Duration(c.Review.SessionTTLMinutes) * time.Minute
	return d
}

// PollTimeout returns the long-poll timeout for getUpdates.
func (c *Config) PollTimeout() (d time.Duration) {
	d = time.Duration(c.Telegram.PollTimeoutSeconds) * time.Second
	return d
}

// Load reads configuration from file with environment variable overrides.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func Load(configPath string) (cfg Config, err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = errors.Errorf("config file not found: %s (run 'cv-coach init' to create)", path)
			return cfg, err
		}
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	err = Unmarshal(path, data, &cfg)
	if err != nil {
		return cfg, err
	}

	cfg.applyEnv()

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// Unmarshal decodes data as YAML or JSON depending on the file extension of path.
func Unmarshal(path string, data []byte, cfg *Config) (err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to parse config file: %s", path)
	}
	return err
}

func (c *Config) applyEnv() {
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		c.AnthropicAPIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		c.GeminiAPIKey = apiKey
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if level := os.Getenv("CV_COACH_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// Validate checks field constraints, the provider key, and fills defaults.
func (c *Config) Validate() (err error) {
	err = validator.New().Struct(c)
	if err != nil {
		err = errors.Wrap(err, "invalid config")
		return err
	}

	if c.Provider == "" {
		c.Provider = ProviderClaude
	}

	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			err = errors.New("gemini_api_key is required (set in config or GEMINI_API_KEY env var)")
			return err
		}
	default:
		if c.AnthropicAPIKey == "" {
			err = errors.New("anthropic_api_key is required (set in config or ANTHROPIC_API_KEY env var)")
			return err
		}
	}

	if c.Pandoc.ClassFile != "" && c.Pandoc.TemplatePath == "" {
		err = errors.New("pandoc.class_file requires pandoc.template_path")
		return err
	}

	if c.Review.RevisionTimeoutSeconds == 0 {
		c.Review.RevisionTimeoutSeconds = defaultRevisionTimeout
	}
	if c.Review.SessionTTLMinutes == 0 {
		c.Review.SessionTTLMinutes = defaultSessionTTL
	}
	if c.Telegram.PollTimeoutSeconds == 0 {
		c.Telegram.PollTimeoutSeconds = defaultPollTimeout
	}
	if c.Defaults.OutputDir == "" {
		c.Defaults.OutputDir = defaultOutputDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return err
}

// ValidateBot checks the settings the chat bot needs on top of Validate.
func (c *Config) ValidateBot() (err error) {
	if c.Telegram.Token == "" {
		err = errors.New("telegram.token is required (set in config or TELEGRAM_TOKEN env var)")
		return err
	}

	if c.Telegram.AdminID == 0 && len(c.Telegram.AllowedUsers) == 0 {
		err = errors.New("telegram.admin_id or telegram.allowed_users is required; the bot would refuse everyone")
		return err
	}

	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return err
	}

	polish := true
	defaultConfig := Config{
		Provider:        ProviderClaude,
		AnthropicAPIKey: "sk-ant-api03-...",
		Telegram: TelegramConfig{
			Token:              "123456:ABC...",
			PollTimeoutSeconds: defaultPollTimeout,
		},
		Review: ReviewConfig{
			PolishRevisions:        &polish,
			RevisionTimeoutSeconds: defaultRevisionTimeout,
			SessionTTLMinutes:      defaultSessionTTL,
		},
		Defaults: DefaultConfig{
			OutputDir: filepath.Join(homeDir, configDirName, "results"),
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(defaultConfig)
	default:
		data, err = json.MarshalIndent(defaultConfig, "", "  ")
	}
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	return err
}
