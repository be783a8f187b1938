package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default values used when the config file or a key is absent.
const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultTimeoutSec = 30
	DefaultTheme      = "default"
)

// APIConfig holds settings for the remote task API.
type APIConfig struct {
	// BaseURL is the root URL of the task API (e.g., https://tasks.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// ChatConfig holds settings for the support chat relay.
type ChatConfig struct {
	// URL is the full chat endpoint. Empty means BaseURL + /api/chat.
	URL string `mapstructure:"url" yaml:"url"`
}

// AuthConfig holds optional local token verification settings.
type AuthConfig struct {
	// JWTSecret enables local HS256 signature and expiry checks before
	// the token is sent to the API. Empty disables local verification.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LegalConfig points at the hosted legal pages.
type LegalConfig struct {
	TermsURL   string `mapstructure:"terms_url" yaml:"terms_url"`
	PrivacyURL string `mapstructure:"privacy_url" yaml:"privacy_url"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Legal   LegalConfig   `mapstructure:"legal" yaml:"legal"`
}

// ChatURL returns the effective chat endpoint.
func (c *AppConfig) ChatURL() string {
	if c.Chat.URL != "" {
		return c.Chat.URL
	}
	return strings.TrimRight(c.API.BaseURL, "/") + "/api/chat"
}

// ConfigDir returns the directory holding the config file, logs and the
// file-based keyring fallback: ~/.config/taskdesk.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskdesk")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskdesk/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutSec: DefaultTimeoutSec,
		},
		Display: DisplayConfig{
			Theme: DefaultTheme,
		},
	}
}

// newViper returns a viper instance with defaults and TASKDESK_* env
// overrides wired in.
func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout_sec", DefaultTimeoutSec)
	v.SetDefault("chat.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("display.theme", DefaultTheme)
	v.SetDefault("legal.terms_url", "")
	v.SetDefault("legal.privacy_url", "")

	v.SetEnvPrefix("TASKDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values from a .env file in the working directory and TASKDESK_*
// environment variables take precedence. If the file does not exist, the
// defaults (plus env overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = DefaultTimeoutSec
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	return cfg, nil
}

// loadDotEnv exports the variables of a .env file. A missing file is the
// common case and not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	var pathErr *os.PathError
	if err == nil || errors.As(err, &pathErr) {
		return nil
	}
	return fmt.Errorf("reading %s: %w", path, err)
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout_sec", cfg.API.TimeoutSec)
	v.Set("chat.url", cfg.Chat.URL)
	v.Set("auth.jwt_secret", cfg.Auth.JWTSecret)
	v.Set("display.theme", cfg.Display.Theme)
	v.Set("legal.terms_url", cfg.Legal.TermsURL)
	v.Set("legal.privacy_url", cfg.Legal.PrivacyURL)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	// The file may hold a JWT secret.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("restricting config permissions: %w", err)
	}

	return nil
}

// ConfigKeys lists the keys accepted by SetConfigValue.
var ConfigKeys = []string{
	"api.base_url",
	"api.timeout_sec",
	"chat.url",
	"auth.jwt_secret",
	"display.theme",
	"legal.terms_url",
	"legal.privacy_url",
}

// SetConfigValue updates a single dotted key (e.g. "api.base_url") in the
// config file at path, preserving the other values.
func SetConfigValue(path, key, value string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}

	switch key {
	case "api.base_url":
		cfg.API.BaseURL = strings.TrimRight(value, "/")
	case "api.timeout_sec":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n <= 0 {
			return fmt.Errorf("invalid timeout %q: must be a positive integer", value)
		}
		cfg.API.TimeoutSec = n
	case "chat.url":
		cfg.Chat.URL = value
	case "auth.jwt_secret":
		cfg.Auth.JWTSecret = value
	case "display.theme":
		cfg.Display.Theme = value
	case "legal.terms_url":
		cfg.Legal.TermsURL = value
	case "legal.privacy_url":
		cfg.Legal.PrivacyURL = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	return SaveConfig(path, cfg)
}
