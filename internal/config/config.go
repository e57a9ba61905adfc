package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv         = "ARTICLE_CLASSIFIER_CONFIG"
	logLevelEnv           = "LOG_LEVEL"
	scopusAPIKeyEnv       = "SCOPUS_API_KEY"
	classifierProviderEnv = "CLASSIFIER_PROVIDER"
	classifierModelEnv    = "CLASSIFIER_MODEL"
	classifierAPIKeyEnv   = "CLASSIFIER_API_KEY"
	databaseDSNEnv        = "DATABASE_DSN"
	telegramTokenEnv      = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv     = "TELEGRAM_CHAT_ID"
)

// Classifier provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var providerKeyEnv = map[string]string{
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scopus        ScopusConfig       `yaml:"scopus"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Timeline      TimelineConfig     `yaml:"timeline"`
	WordCloud     WordCloudConfig    `yaml:"wordcloud"`
	Chart         ChartConfig        `yaml:"chart"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	Server        ServerConfig       `yaml:"server"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// ScopusConfig describes how to reach the Elsevier APIs.
type ScopusConfig struct {
	Scanner           string        `yaml:"scanner" validate:"required"`
	BaseURL           string        `yaml:"baseUrl" validate:"required,url"`
	APIKey            string        `yaml:"apiKey"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	Cooldown          time.Duration `yaml:"cooldown" validate:"gte=0"`
	OffsetPadding     int           `yaml:"offsetPadding" validate:"gte=0"`
	DefaultThreshold  int           `yaml:"defaultThreshold" validate:"gte=0"`
}

// ClassifierConfig defines how to contact the text generation endpoint.
type ClassifierConfig struct {
	Provider         string        `yaml:"provider" validate:"required,oneof=gemini openai anthropic"`
	// Endpoint points the openai provider at an OpenAI-compatible server.
	Endpoint         string        `yaml:"endpoint" validate:"omitempty,url"`
	Model            string        `yaml:"model" validate:"required"`
	APIKey           string        `yaml:"apiKey"`
	Temperature      float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens        int           `yaml:"maxTokens" validate:"gte=0"`
	Delay            time.Duration `yaml:"delay" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	DefaultThreshold int           `yaml:"defaultThreshold" validate:"gte=0"`
	KeepUndefined    bool          `yaml:"keepUndefined"`
}

// TimelineConfig is the inclusive year range used for bucketing.
type TimelineConfig struct {
	StartYear int `yaml:"startYear" validate:"gte=1000,lte=9999"`
	EndYear   int `yaml:"endYear" validate:"gtefield=StartYear,lte=9999"`
}

// WordCloudConfig drives PNG rendering.
type WordCloudConfig struct {
	CitationThreshold int          `yaml:"citationThreshold" validate:"gte=0"`
	Output            string       `yaml:"output" validate:"required"`
	Overall           CloudOptions `yaml:"overall"`
	PerCategory       CloudOptions `yaml:"perCategory"`
}

// CloudOptions are the dimensions of a single cloud.
type CloudOptions struct {
	MaxWords    int     `yaml:"maxWords" validate:"gt=0"`
	MaxFontSize float64 `yaml:"maxFontSize" validate:"gt=0"`
	Width       int     `yaml:"width" validate:"gt=0"`
	Height      int     `yaml:"height" validate:"gt=0"`
}

// ChartConfig drives HTML chart generation.
type ChartConfig struct {
	Output string `yaml:"output" validate:"required"`
	Title  string `yaml:"title"`
}

// DatabaseConfig describes the optional article ledger. Empty DSN disables it.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ServerConfig configures the local job service.
type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// MetricsConfig names the metric namespace and optional textfile export.
type MetricsConfig struct {
	Namespace    string `yaml:"namespace" validate:"required"`
	TextfilePath string `yaml:"textfilePath"`
}

// Load reads YAML configuration (if present), applies environment overrides
// and validates the result. An empty path falls back to ARTICLE_CLASSIFIER_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
			log.Printf("config: %s not found (falling back to defaults)", path)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(scopusAPIKeyEnv); v != "" {
		c.Scopus.APIKey = v
	}

	if v := os.Getenv(classifierProviderEnv); v != "" {
		c.Classifier.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(classifierModelEnv); v != "" {
		c.Classifier.Model = v
	}
	if env, ok := providerKeyEnv[c.Classifier.Provider]; ok {
		if v := os.Getenv(env); v != "" {
			c.Classifier.APIKey = v
		}
	}
	if v := os.Getenv(classifierAPIKeyEnv); v != "" {
		c.Classifier.APIKey = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

// ParseYear converts user-entered year text, returning fallback when it is
// not a four-digit year.
func ParseYear(raw string, fallback int) int {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < 1000 || year > 9999 {
		return fallback
	}
	return year
}

// ParseThreshold converts user-entered citation threshold text, returning
// fallback for empty, negative or malformed input.
func ParseThreshold(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Scopus: ScopusConfig{
			Scanner:           "scopus",
			BaseURL:           "https://api.elsevier.com",
			RequestsPerSecond: 8,
			Timeout:           30 * time.Second,
			Cooldown:          5 * time.Minute,
			OffsetPadding:     1,
			DefaultThreshold:  0,
		},
		Classifier: ClassifierConfig{
			Provider:         ProviderGemini,
			Model:            "gemma-3-27b-it",
			Temperature:      0,
			MaxTokens:        64,
			Delay:            2100 * time.Millisecond,
			Timeout:          60 * time.Second,
			DefaultThreshold: 10,
		},
		Timeline: TimelineConfig{StartYear: 2010, EndYear: 2025},
		WordCloud: WordCloudConfig{
			CitationThreshold: 15,
			Output:            "wordcloud.png",
			Overall:           CloudOptions{MaxWords: 100, MaxFontSize: 50, Width: 800, Height: 600},
			PerCategory:       CloudOptions{MaxWords: 80, MaxFontSize: 50, Width: 600, Height: 400},
		},
		Chart: ChartConfig{
			Output: "article_distribution_graph.html",
			Title:  "Article Distribution by Category Over Time",
		},
		Server:  ServerConfig{Addr: "127.0.0.1:8080", AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"}},
		Metrics: MetricsConfig{Namespace: "article_classifier"},
	}
}
