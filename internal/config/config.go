package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Committee  CommitteeConfig  `yaml:"committee" mapstructure:"committee"`
	Valuation  ValuationConfig  `yaml:"valuation" mapstructure:"valuation"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Temporal   TemporalConfig   `yaml:"temporal" mapstructure:"temporal"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend that persists review runs.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// CommitteeConfig configures the deliberation engine and its reasoner.
type CommitteeConfig struct {
	OpinionMaxTokens int64       `yaml:"opinion_max_tokens" mapstructure:"opinion_max_tokens"`
	ChairMaxTokens   int64       `yaml:"chair_max_tokens" mapstructure:"chair_max_tokens"`
	Temperature      float64     `yaml:"temperature" mapstructure:"temperature"`
	RatePerSecond    float64     `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst            int         `yaml:"burst" mapstructure:"burst"`
	CallTimeoutSecs  int         `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	PromptCacheTTL   string      `yaml:"prompt_cache_ttl" mapstructure:"prompt_cache_ttl"`
	Retry            RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ValuationConfig configures the external valuation collaborator.
type ValuationConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig holds retry settings for an outbound dependency.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig holds circuit breaker settings for an outbound dependency.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ScoringConfig holds the region-dependent scoring constants.
type ScoringConfig struct {
	CapitalRegions       []string `yaml:"capital_regions" mapstructure:"capital_regions"`
	CapitalLivingExpense int64    `yaml:"capital_living_expense" mapstructure:"capital_living_expense"`
	OtherLivingExpense   int64    `yaml:"other_living_expense" mapstructure:"other_living_expense"`
}

// CacheConfig configures the TTL stores behind the review cache and session
// tokens.
type CacheConfig struct {
	Driver            string `yaml:"driver" mapstructure:"driver"` // "memory" or "redis"
	RedisAddr         string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword     string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB           int    `yaml:"redis_db" mapstructure:"redis_db"`
	ReviewTTLSecs     int    `yaml:"review_ttl_secs" mapstructure:"review_ttl_secs"`
	TokenTTLSecs      int    `yaml:"token_ttl_secs" mapstructure:"token_ttl_secs"`
	SweepIntervalSecs int    `yaml:"sweep_interval_secs" mapstructure:"sweep_interval_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// TemporalConfig configures the durable workflow worker.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" mapstructure:"host_port"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue string `yaml:"task_queue" mapstructure:"task_queue"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// MonitoringConfig configures the run-health checker and its alerts.
type MonitoringConfig struct {
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	DeclineRateThreshold float64 `yaml:"decline_rate_threshold" mapstructure:"decline_rate_threshold"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
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
	v.SetEnvPrefix("UNDERWRITER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "underwriter.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("committee.opinion_max_tokens", 400)
	v.SetDefault("committee.chair_max_tokens", 500)
	v.SetDefault("committee.temperature", 0.3)
	v.SetDefault("committee.rate_per_second", 5.0)
	v.SetDefault("committee.burst", 3)
	v.SetDefault("committee.call_timeout_secs", 60)
	v.SetDefault("committee.prompt_cache_ttl", "5m")
	v.SetDefault("committee.retry.max_attempts", 2)
	v.SetDefault("committee.retry.initial_backoff_ms", 1000)
	v.SetDefault("committee.retry.max_backoff_ms", 8000)
	v.SetDefault("committee.retry.multiplier", 2.0)
	v.SetDefault("committee.retry.jitter_fraction", 0.25)
	v.SetDefault("valuation.base_url", "")
	v.SetDefault("valuation.timeout_secs", 10)
	v.SetDefault("valuation.retry.max_attempts", 2)
	v.SetDefault("valuation.retry.initial_backoff_ms", 250)
	v.SetDefault("valuation.retry.max_backoff_ms", 2000)
	v.SetDefault("valuation.retry.multiplier", 2.0)
	v.SetDefault("valuation.retry.jitter_fraction", 0.25)
	v.SetDefault("valuation.circuit.failure_threshold", 5)
	v.SetDefault("valuation.circuit.reset_timeout_secs", 30)
	v.SetDefault("scoring.capital_regions", []string{"台北市", "臺北市", "Taipei City"})
	v.SetDefault("scoring.capital_living_expense", 20000)
	v.SetDefault("scoring.other_living_expense", 15000)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.review_ttl_secs", 600)
	v.SetDefault("cache.token_ttl_secs", 900)
	v.SetDefault("cache.sweep_interval_secs", 300)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "underwriting")
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.failure_rate_threshold", 0.2)
	v.SetDefault("monitoring.decline_rate_threshold", 0.0)
	v.SetDefault("monitoring.cost_threshold_usd", 0.0)
	v.SetDefault("monitoring.webhook_url", "")

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

// Validate checks that the settings required by the given run mode are
// present. Modes: "serve", "review", "committee", "worker".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateCommon()...)
	case "review":
		errs = append(errs, c.validateCommon()...)
	case "committee":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
		errs = append(errs, c.validateCommon()...)
	case "worker":
		if c.Temporal.HostPort == "" {
			errs = append(errs, "temporal.host_port is required")
		}
		if c.Temporal.TaskQueue == "" {
			errs = append(errs, "temporal.task_queue is required")
		}
		errs = append(errs, c.validateCommon()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateCommon() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, "cache.redis_addr is required for the redis driver")
		}
	default:
		errs = append(errs, "cache.driver must be memory or redis")
	}
	if c.Committee.OpinionMaxTokens <= 0 || c.Committee.ChairMaxTokens <= 0 {
		errs = append(errs, "committee max tokens must be > 0")
	}
	if c.Committee.Temperature < 0 || c.Committee.Temperature > 1 {
		errs = append(errs, "committee.temperature must be between 0 and 1")
	}
	if c.Scoring.CapitalLivingExpense < 0 || c.Scoring.OtherLivingExpense < 0 {
		errs = append(errs, "scoring living expenses must be >= 0")
	}
	return errs
}
