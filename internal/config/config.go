package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Geocoder  GeocoderConfig  `yaml:"geocoder" mapstructure:"geocoder"`
	EPC       EPCConfig       `yaml:"epc" mapstructure:"epc"`
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	PVGIS     PVGISConfig     `yaml:"pvgis" mapstructure:"pvgis"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Model     ModelConfig     `yaml:"model" mapstructure:"model"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
}

// StoreConfig configures the PostGIS connection.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int    `yaml:"max_conns" mapstructure:"max_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	JWTSecret   string   `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeocoderConfig configures the postcodes.io client.
type GeocoderConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// EPCConfig holds Energy Performance Certificate API credentials.
type EPCConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Email       string `yaml:"email" mapstructure:"email"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OverpassConfig configures the OpenStreetMap Overpass schools lookup.
type OverpassConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	RadiusM     int    `yaml:"radius_m" mapstructure:"radius_m"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PVGISConfig configures the EU JRC solar estimate proxy.
type PVGISConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnalysisConfig configures the analysis pipeline and its data lookups.
type AnalysisConfig struct {
	ProviderTimeoutSecs int `yaml:"provider_timeout_secs" mapstructure:"provider_timeout_secs"`
	PlanningRadiusM     int `yaml:"planning_radius_m" mapstructure:"planning_radius_m"`
	RecentRadiusM       int `yaml:"recent_radius_m" mapstructure:"recent_radius_m"`
	LookbackYears       int `yaml:"lookback_years" mapstructure:"lookback_years"`
	MarketRadiusM       int `yaml:"market_radius_m" mapstructure:"market_radius_m"`
	MarketMonths        int `yaml:"market_months" mapstructure:"market_months"`
}

// ProviderTimeout returns the per-provider call timeout.
func (a AnalysisConfig) ProviderTimeout() time.Duration {
	return time.Duration(a.ProviderTimeoutSecs) * time.Second
}

// ModelConfig locates the approval model artifact. An empty or missing path
// runs the predictor in fallback mode.
type ModelConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig configures the analysis result cache.
type CacheConfig struct {
	Backend       string `yaml:"backend" mapstructure:"backend"`
	TTLSecs       int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	Shards        int    `yaml:"shards" mapstructure:"shards"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	Prefix        string `yaml:"prefix" mapstructure:"prefix"`
}

// TTL returns the cache validity window.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// AnthropicConfig holds settings for the narrative report writer.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RetryConfig configures retries for outbound HTTP calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures per-service circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLANPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:3001"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("geocoder.base_url", "https://api.postcodes.io")
	v.SetDefault("geocoder.timeout_secs", 10)
	v.SetDefault("geocoder.rate_limit", 20)
	v.SetDefault("epc.base_url", "https://epc.opendatacommunities.org/api/v1")
	v.SetDefault("epc.timeout_secs", 10)
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.radius_m", 1200)
	v.SetDefault("overpass.timeout_secs", 14)
	v.SetDefault("pvgis.base_url", "https://re.jrc.ec.europa.eu/api/v5_2")
	v.SetDefault("pvgis.timeout_secs", 10)
	v.SetDefault("analysis.provider_timeout_secs", 12)
	v.SetDefault("analysis.planning_radius_m", 500)
	v.SetDefault("analysis.recent_radius_m", 200)
	v.SetDefault("analysis.lookback_years", 5)
	v.SetDefault("analysis.market_radius_m", 500)
	v.SetDefault("analysis.market_months", 24)
	v.SetDefault("model.path", "ml/planning_model.json")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_secs", 300)
	v.SetDefault("cache.shards", 16)
	v.SetDefault("cache.prefix", "planpilot:analysis:")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.initial_backoff_ms", 250)
	v.SetDefault("retry.max_backoff_ms", 2000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)

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

// Validate checks that the configuration is internally consistent and that
// the settings required by the given command mode are present. Modes: "serve",
// "analyze", and "" for the checks shared by all commands.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve", "analyze":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Analysis.ProviderTimeoutSecs <= 0 {
		errs = append(errs, "analysis.provider_timeout_secs must be > 0")
	}
	if c.Analysis.PlanningRadiusM <= 0 || c.Analysis.RecentRadiusM <= 0 || c.Analysis.MarketRadiusM <= 0 {
		errs = append(errs, "analysis radii must be > 0")
	}
	if c.Analysis.LookbackYears <= 0 {
		errs = append(errs, "analysis.lookback_years must be > 0")
	}
	if c.Analysis.MarketMonths < 2 {
		errs = append(errs, "analysis.market_months must be >= 2")
	}
	if c.PVGIS.TimeoutSecs < 0 {
		errs = append(errs, "pvgis.timeout_secs must be >= 0")
	}
	if c.Cache.TTLSecs <= 0 {
		errs = append(errs, "cache.ttl_secs must be > 0")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, "cache.redis_addr is required for the redis backend")
		}
	default:
		errs = append(errs, "cache.backend must be memory or redis")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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
