package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// garmin connect
	GarminSSOURL        string `toml:"garmin_sso_url"`
	GarminConnectAPIURL string `toml:"garmin_connect_api_url"`
	GarminTimeoutSec    int    `toml:"garmin_timeout_sec"`
	ActivitiesLimit     int    `toml:"activities_limit"`
	// where the service reads activities from: garmin (default) or postgres, filled by activities_sync
	ActivitiesSource string `toml:"activities_source"`
	// side files
	EnvFile      string `toml:"env_file"`
	CriteriaPath string `toml:"criteria_path"`
	// cache of fetched activities, seconds
	ActivitiesCacheTTL int `toml:"activities_cache_ttl"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// postgres
	PostgresHost string `toml:"postgres_host"`
	PostgresPort string `toml:"postgres_port"`
	PostgresDB   string `toml:"postgres_db"`
	PostgresUser string `toml:"postgres_user"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// requests per minute per client ip, 0 disables rate limiting
	RateLimitPerMin int `toml:"rate_limit_per_min"`
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c *Config) PostgresEnabled() bool {
	return c.PostgresHost != ""
}

const (
	SourceGarmin   = "garmin"
	SourcePostgres = "postgres"
)

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file and returns the config of the given env, with defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode toml config %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.ActivitiesLimit <= 0 {
		c.ActivitiesLimit = 100
	}
	if c.GarminTimeoutSec <= 0 {
		c.GarminTimeoutSec = 30
	}
	if c.ActivitiesSource == "" {
		c.ActivitiesSource = SourceGarmin
	}
	if c.EnvFile == "" {
		c.EnvFile = ".env"
	}
	if c.CriteriaPath == "" {
		c.CriteriaPath = "list-tags.json"
	}
	if c.ActivitiesCacheTTL <= 0 {
		c.ActivitiesCacheTTL = 300
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	switch c.ActivitiesSource {
	case SourceGarmin:
	case SourcePostgres:
		if !c.PostgresEnabled() {
			return fmt.Errorf("activities source %s needs postgres_host", c.ActivitiesSource)
		}
	default:
		return fmt.Errorf("unknown activities source: %s", c.ActivitiesSource)
	}
	return nil
}
