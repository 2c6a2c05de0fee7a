package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sntry/leadgen-cli/internal/extract"
	"github.com/sntry/leadgen-cli/internal/fusion"
	"github.com/sntry/leadgen-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig       `yaml:"store" mapstructure:"store"`
	Compliance ComplianceConfig  `yaml:"compliance" mapstructure:"compliance"`
	Fusion     FusionConfig      `yaml:"fusion" mapstructure:"fusion"`
	Extract    extract.Selectors `yaml:"extract" mapstructure:"extract"`
	Salesforce SalesforceConfig  `yaml:"salesforce" mapstructure:"salesforce"`
	Server     ServerConfig      `yaml:"server" mapstructure:"server"`
	Log        LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ComplianceConfig configures robots.txt checking and crawl politeness.
type ComplianceConfig struct {
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	CacheTTLHours     int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	MinCrawlDelaySecs float64 `yaml:"min_crawl_delay_secs" mapstructure:"min_crawl_delay_secs"`
	FetchTimeoutSecs  int     `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// FusionConfig configures lead scoring.
type FusionConfig struct {
	Weights             fusion.Weights `yaml:"weights" mapstructure:"weights"`
	HalfLifeDays        float64        `yaml:"half_life_days" mapstructure:"half_life_days"`
	CategoryWeightsFile string         `yaml:"category_weights_file" mapstructure:"category_weights_file"`
	CustomerCSV         string         `yaml:"customer_csv" mapstructure:"customer_csv"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("store.pool.max_conns", 4)
	v.SetDefault("store.pool.min_conns", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("compliance.user_agent", "leadgen-cli")
	v.SetDefault("compliance.cache_ttl_hours", 1)
	v.SetDefault("compliance.min_crawl_delay_secs", 1.0)
	v.SetDefault("compliance.fetch_timeout_secs", 10)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 5.0)
	v.SetDefault("fusion.half_life_days", 180.0)

	weights := fusion.DefaultWeights()
	v.SetDefault("fusion.weights.completeness", weights.Completeness)
	v.SetDefault("fusion.weights.contact", weights.Contact)
	v.SetDefault("fusion.weights.recency", weights.Recency)
	v.SetDefault("fusion.weights.category", weights.Category)

	selectors := extract.DefaultSelectors()
	v.SetDefault("extract.listing", selectors.Listing)
	v.SetDefault("extract.name", selectors.Name)
	v.SetDefault("extract.category", selectors.Category)
	v.SetDefault("extract.address", selectors.Address)
	v.SetDefault("extract.phone", selectors.Phone)
	v.SetDefault("extract.email", selectors.Email)
	v.SetDefault("extract.website", selectors.Website)
	v.SetDefault("extract.description", selectors.Description)
	v.SetDefault("extract.hours", selectors.Hours)
	v.SetDefault("extract.rating", selectors.Rating)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "store"
// (persistence), "crm" (Salesforce lookups), "serve" (HTTP API).
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Fusion.HalfLifeDays <= 0 {
		problems = append(problems, "fusion.half_life_days must be > 0")
	}
	w := c.Fusion.Weights
	if w.Completeness < 0 || w.Contact < 0 || w.Recency < 0 || w.Category < 0 {
		problems = append(problems, "fusion.weights values must be >= 0")
	}
	if c.Compliance.MinCrawlDelaySecs < 0 {
		problems = append(problems, "compliance.min_crawl_delay_secs must be >= 0")
	}

	switch mode {
	case "store":
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "crm":
		if c.Salesforce.ClientID == "" {
			problems = append(problems, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			problems = append(problems, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			problems = append(problems, "salesforce.key_path is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
