package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	MarketData  MarketDataConfig `mapstructure:"market_data"`
	Model       ModelConfig      `mapstructure:"model"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
	Client      ClientConfig     `mapstructure:"client"`
	History     HistoryConfig    `mapstructure:"history"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
}

// MarketDataConfig points at the DexScreener-compatible market-data provider.
type MarketDataConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// ModelConfig describes the OpenAI-compatible chat model provider.
type ModelConfig struct {
	APIKey  string `mapstructure:"api_key" json:"-" yaml:"-"`
	BaseURL string `mapstructure:"base_url"`
	Name    string `mapstructure:"name"`
	Timeout string `mapstructure:"timeout"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	LogsEnabled    bool   `mapstructure:"logs_enabled"`
}

// ClientConfig is used by the tokenscope CLI to reach the analysis server.
type ClientConfig struct {
	ServerURL string `mapstructure:"server_url"`
	Timeout   string `mapstructure:"timeout"`
}

type HistoryConfig struct {
	Backend       string `mapstructure:"backend"`
	FilePath      string `mapstructure:"file_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Key           string `mapstructure:"key"`
}

// Supported telemetry exporters and history backends.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterNone   = "none"

	HistoryMemory = "memory"
	HistoryFile   = "file"
	HistoryRedis  = "redis"
)

func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("model.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("model.base_url", "OPENAI_BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_BASE_URL environment variable: %w", err)
	}
	if err := v.BindEnv("client.server_url", "TOKENSCOPE_SERVER_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind TOKENSCOPE_SERVER_URL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.Telemetry.Exporter = strings.ToLower(config.Telemetry.Exporter)
	config.History.Backend = strings.ToLower(config.History.Backend)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that would otherwise fail later at wiring time.
// A missing model API key is deliberately not an error here: the analysis
// service reports it per request as a misconfiguration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	durations := map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"market_data.timeout":  c.MarketData.Timeout,
		"model.timeout":        c.Model.Timeout,
		"client.timeout":       c.Client.Timeout,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s duration: %w", key, err)
		}
	}

	if c.MarketData.BaseURL == "" {
		return errors.New("market_data.base_url is required")
	}

	switch c.Telemetry.Exporter {
	case ExporterStdout, ExporterOTLP, ExporterNone:
	default:
		return fmt.Errorf("unsupported telemetry exporter %q", c.Telemetry.Exporter)
	}

	switch c.History.Backend {
	case HistoryMemory, HistoryFile:
	case HistoryRedis:
		if c.History.RedisAddr == "" {
			return errors.New("history.redis_addr is required for the redis history backend")
		}
	default:
		return fmt.Errorf("unsupported history backend %q", c.History.Backend)
	}

	return nil
}

// ModelConfigured reports whether the model provider credential is present.
func (c *Config) ModelConfigured() bool {
	return strings.TrimSpace(c.Model.APIKey) != ""
}

// Duration parses a duration option, falling back to def when empty or invalid.
func Duration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")

	// Market data
	v.SetDefault("market_data.base_url", "https://api.dexscreener.com")
	v.SetDefault("market_data.timeout", "15s")

	// Model provider
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "https://api.openai.com/v1")
	v.SetDefault("model.name", "gpt-4")
	v.SetDefault("model.timeout", "60s")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", ExporterStdout)
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "tokenscope")
	v.SetDefault("telemetry.service_version", "1.0.0")
	v.SetDefault("telemetry.logs_enabled", false)

	// Client
	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.timeout", "90s")

	// History
	v.SetDefault("history.backend", HistoryFile)
	v.SetDefault("history.file_path", ".tokenscope/history.json")
	v.SetDefault("history.redis_addr", "")
	v.SetDefault("history.redis_password", "")
	v.SetDefault("history.redis_db", 0)
	v.SetDefault("history.key", "tokenscope:search_history")
}
