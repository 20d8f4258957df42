package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	AtCoder        AtCoderConfig        `mapstructure:"atcoder"`
	Editorial      EditorialConfig      `mapstructure:"editorial"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Advice         AdviceConfig         `mapstructure:"advice"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
	Mode string `mapstructure:"mode" validate:"oneof=development production"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// AtCoderConfig configures the external data sources. When FixturesDir is
// set, every source reads from files in that directory instead of the network.
type AtCoderConfig struct {
	ResourcesURL    string        `mapstructure:"resources_url" validate:"required,url"`
	APIURL          string        `mapstructure:"api_url" validate:"required,url"`
	SiteURL         string        `mapstructure:"site_url" validate:"required,url"`
	RequestInterval time.Duration `mapstructure:"request_interval" validate:"gte=0"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent       string        `mapstructure:"user_agent"`
	FixturesDir     string        `mapstructure:"fixtures_dir"`
}

type EditorialConfig struct {
	StorePath   string `mapstructure:"store_path" validate:"required"`
	CutoffEpoch int64  `mapstructure:"cutoff_epoch" validate:"gte=0"`
}

type RecommendationConfig struct {
	TopN         int           `mapstructure:"top_n" validate:"min=1,max=50"`
	HistoryCount int           `mapstructure:"history_count" validate:"min=1,max=100"`
	CatalogTTL   time.Duration `mapstructure:"catalog_ttl" validate:"gte=0"`
}

type AdviceConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		EditorialEvents string `mapstructure:"editorial_events"`
	} `mapstructure:"topics"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks struct-level constraints of a loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Advice.Enabled && c.Advice.APIKey == "" {
		return fmt.Errorf("invalid configuration: advice.api_key is required when advice is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "development")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Data source defaults
	v.SetDefault("atcoder.resources_url", "https://kenkoooo.com/atcoder/resources")
	v.SetDefault("atcoder.api_url", "https://kenkoooo.com/atcoder/atcoder-api/v3")
	v.SetDefault("atcoder.site_url", "https://atcoder.jp")
	v.SetDefault("atcoder.request_interval", "1s")
	v.SetDefault("atcoder.timeout", "30s")
	v.SetDefault("atcoder.user_agent", "atcpro/1.0")
	v.SetDefault("atcoder.fixtures_dir", "")

	// Editorial defaults (ABC175 onwards)
	v.SetDefault("editorial.store_path", "data/problems_editorial.json")
	v.SetDefault("editorial.cutoff_epoch", 1597492800)

	// Recommendation defaults
	v.SetDefault("recommendation.top_n", 3)
	v.SetDefault("recommendation.history_count", 10)
	v.SetDefault("recommendation.catalog_ttl", "1h")

	// Advice defaults
	v.SetDefault("advice.enabled", false)
	v.SetDefault("advice.model", "gemini-2.0-flash")
	v.SetDefault("advice.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("advice.timeout", "60s")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "localhost:6379")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 5)
	v.SetDefault("redis.timeout", "5s")
	v.SetDefault("redis.catalog_ttl", "6h")

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topics.editorial_events", "editorial-events")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
}
