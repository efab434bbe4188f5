package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath      = "config.yaml"
	defaultLLMProvider     = ProviderGroq
	defaultGroqModel       = "llama-3.3-70b-versatile"
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultTemperature     = 0.8
	defaultAddr            = ":3000"
	defaultMaxUploadMB     = 512
	defaultShutdownTimeout = 10 * time.Second
	defaultStorageProvider = StorageLocal
	defaultStorageDir      = "./.uploads"
	defaultGCSPrefix       = "uploads"
	defaultOAuthPort       = 8085
	defaultHistoryPath     = "./.history/uploads.json"
	defaultHistoryLimit    = 200
	defaultFetchTimeout    = 2 * time.Minute
	defaultFetchRetries    = 3
)

// DefaultYouTubeTokenPath is where `uploadagent auth youtube` stores the user
// token when YOUTUBE_TOKEN_PATH is unset.
const DefaultYouTubeTokenPath = "./youtube_token.json"

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StorageLocal = "local"
	StorageGCS   = "gcs"
)

var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrUnknownStorage  = errors.New("unknown storage provider")
)

type Config struct {
	GroqAPIKey         string `yaml:"-"`
	OpenAIAPIKey       string `yaml:"-"`
	GeminiAPIKey       string `yaml:"-"`
	GoogleClientID     string `yaml:"-"`
	GoogleClientSecret string `yaml:"-"`
	YouTubeTokenPath   string `yaml:"-"`
	GCSBucket          string `yaml:"-"`
	GCPProject         string `yaml:"-"`

	LLM     LLMConfig     `yaml:"llm"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Media   MediaConfig   `yaml:"media"`
	YouTube YouTubeConfig `yaml:"youtube"`
	History HistoryConfig `yaml:"history"`
	Secrets SecretsConfig `yaml:"secrets"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "groq", "openai" or "gemini"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxUploadMB     int64         `yaml:"max_upload_mb"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Provider string `yaml:"provider"` // "local" or "gcs"
	Dir      string `yaml:"dir"`
	Prefix   string `yaml:"prefix"`
}

type MediaConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	FetchRetries *int          `yaml:"fetch_retries"`
}

type YouTubeConfig struct {
	OAuthPort int `yaml:"oauth_port"`
}

type HistoryConfig struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"`
}

type SecretsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads .env, the process environment and config.yaml, in that order of
// precedence for secrets, then applies defaults. When secrets.enabled is set
// and a GCP project is known, empty credentials are resolved from Secret
// Manager.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		YouTubeTokenPath:   getEnvOrDefault("YOUTUBE_TOKEN_PATH", DefaultYouTubeTokenPath),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCPProject:         os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}

	if err := loadYAMLConfig(cfg, defaultConfigPath); err != nil {
		return nil, err
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}
	applyDefaults(cfg)

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}

	if cfg.Secrets.Enabled && cfg.GCPProject != "" {
		sm, err := newSecretManager(ctx, cfg.GCPProject)
		if err != nil {
			return nil, fmt.Errorf("failed to create secret manager client: %w", err)
		}
		defer func() { _ = sm.Close() }()

		resolveSecrets(ctx, cfg, sm)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("No config.yaml found, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyLLMDefaults(cfg)
	applyServerDefaults(cfg)
	applyStorageDefaults(cfg)
	applyMediaDefaults(cfg)
	applyYouTubeDefaults(cfg)
	applyHistoryDefaults(cfg)
}

func applyLLMDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultLLMProvider
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case ProviderOpenAI:
			cfg.LLM.Model = defaultOpenAIModel
		case ProviderGemini:
			cfg.LLM.Model = defaultGeminiModel
		default:
			cfg.LLM.Model = defaultGroqModel
		}
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = defaultTemperature
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = defaultStorageProvider
		if cfg.GCSBucket != "" {
			cfg.Storage.Provider = StorageGCS
		}
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = defaultStorageDir
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = defaultGCSPrefix
	}
}

func applyMediaDefaults(cfg *Config) {
	if cfg.Media.FetchTimeout == 0 {
		cfg.Media.FetchTimeout = defaultFetchTimeout
	}
	// An explicit 0 disables retries.
	if cfg.Media.FetchRetries == nil {
		n := defaultFetchRetries
		cfg.Media.FetchRetries = &n
	}
}

func applyYouTubeDefaults(cfg *Config) {
	if cfg.YouTube.OAuthPort == 0 {
		cfg.YouTube.OAuthPort = defaultOAuthPort
	}
}

func applyHistoryDefaults(cfg *Config) {
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath
	}
	if cfg.History.Limit == 0 {
		cfg.History.Limit = defaultHistoryLimit
	}
}

func (c *Config) validate() error {
	if !slices.Contains([]string{ProviderGroq, ProviderOpenAI, ProviderGemini}, c.LLM.Provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.LLM.Provider)
	}
	if c.Storage.Provider != StorageLocal && c.Storage.Provider != StorageGCS {
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Provider)
	}
	if c.Storage.Provider == StorageGCS && c.GCSBucket == "" {
		return errors.New("GCS_BUCKET must be set when storage.provider is gcs")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature %v out of range [0, 2]", c.LLM.Temperature)
	}
	return nil
}

// LLMAPIKey returns the API key of the configured provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return c.GroqAPIKey
	}
}

// HasPlatformCredentials reports whether Google OAuth client credentials are
// configured. Without them submissions run in demo mode.
func (c *Config) HasPlatformCredentials() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
