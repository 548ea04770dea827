package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/dgallion1/modmap/internal/assemble"
	"github.com/dgallion1/modmap/internal/extract"
)

// Config is the full service configuration, loaded from defaults, an
// optional config file, and MODMAP_-prefixed environment variables.
type Config struct {
	Port string `mapstructure:"port"`

	// Auth: empty disables API authentication.
	APIKey string `mapstructure:"api_key"`

	// Extraction backends. Anthropic is preferred when both are set.
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	AnthropicModel  string        `mapstructure:"anthropic_model"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	OpenAIModel     string        `mapstructure:"openai_model"`
	ExtractTimeout  time.Duration `mapstructure:"extract_timeout"`

	// Worker pool.
	WorkerCount   int `mapstructure:"worker_count"`
	MaxQueueSize  int `mapstructure:"max_queue_size"`
	PageAnalyzers int `mapstructure:"page_analyzers"`

	// Upload limits.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// Job state.
	JobTTL time.Duration `mapstructure:"job_ttl"`

	// Context assembly budget.
	MaxContextTokens int     `mapstructure:"max_context_tokens"`
	CharsPerToken    float64 `mapstructure:"chars_per_token"`

	// Directory ingest.
	WatchDirs []string `mapstructure:"watch_dirs"`
}

// Load reads configuration. cfgFile may be empty, in which case
// ./modmap.yaml is used if present.
func Load(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("port", "8090")
	v.SetDefault("api_key", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("anthropic_model", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "")
	v.SetDefault("extract_timeout", 2*time.Minute)
	v.SetDefault("worker_count", 4)
	v.SetDefault("max_queue_size", 100)
	v.SetDefault("page_analyzers", 4)
	v.SetDefault("max_upload_bytes", int64(50*1024*1024))
	v.SetDefault("job_ttl", time.Hour)
	v.SetDefault("max_context_tokens", 80000)
	v.SetDefault("chars_per_token", 3.5)
	v.SetDefault("watch_dirs", []string{})

	v.SetEnvPrefix("MODMAP")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("modmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.modmap")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// The extraction keys are conventionally set unprefixed; honor those
	// when the prefixed forms are absent.
	if cfg.AnthropicAPIKey == "" {
		cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg.applyBounds()
	return cfg, nil
}

func (c *Config) applyBounds() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.PageAnalyzers < 0 {
		c.PageAnalyzers = 0
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 50 * 1024 * 1024
	}
	if c.JobTTL <= 0 {
		c.JobTTL = time.Hour
	}
	if c.MaxContextTokens <= 0 {
		c.MaxContextTokens = 80000
	}
	if c.CharsPerToken <= 0 {
		c.CharsPerToken = 3.5
	}
	if c.ExtractTimeout <= 0 {
		c.ExtractTimeout = 2 * time.Minute
	}
}

// Validate checks that the service can actually extract something.
func (c Config) Validate() error {
	if c.AnthropicAPIKey == "" && c.OpenAIAPIKey == "" {
		return extract.ErrNoProvider
	}
	return nil
}

// Assemble returns the context-assembly parameters: tuned defaults with
// the configured budget applied.
func (c Config) Assemble() assemble.Config {
	cfg := assemble.DefaultConfig()
	cfg.MaxTokens = c.MaxContextTokens
	cfg.CharsPerToken = c.CharsPerToken
	return cfg
}

// Extract returns the extraction backend configuration.
func (c Config) Extract() extract.Config {
	return extract.Config{
		AnthropicAPIKey: c.AnthropicAPIKey,
		AnthropicModel:  c.AnthropicModel,
		OpenAIAPIKey:    c.OpenAIAPIKey,
		OpenAIModel:     c.OpenAIModel,
		Timeout:         c.ExtractTimeout,
	}
}
