package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`
	UploadsRootDir string `toml:"uploads_root_dir"`
	MaxUploadMB    int64  `toml:"max_upload_mb"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// rate limiting
	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`
	CoachRateLimitAllowedPerMin int `toml:"coach_rate_limit_allowed_per_min"`

	// sessions
	AuthSessionTTLHours     int `toml:"auth_session_ttl_hours"`
	AutosaveIntervalSeconds int `toml:"autosave_interval_seconds"`
	SessionIdleMinutes      int `toml:"session_idle_minutes"`

	// coach / llm
	LLMBaseURL         string `toml:"llm_base_url"`
	LLMModel           string `toml:"llm_model"`
	LLMTimeoutSeconds  int    `toml:"llm_timeout_seconds"`
	LLMCacheSizeMB     int    `toml:"llm_cache_size_mb"`
	LLMCacheTTLMinutes int    `toml:"llm_cache_ttl_minutes"`

	QuotesCsvPath string   `toml:"quotes_csv_path"`
	CorsOrigins   []string `toml:"cors_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}
	cfg.applyDefaults(env)
	return cfg, nil
}

// Load reads the TOML file and returns the section for the given env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return t.Get(env)
}

func (c *Config) applyDefaults(env string) {
	if c.Environment == "" {
		c.Environment = strings.ToLower(env)
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 25
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = 15
	}
	if c.CoachRateLimitAllowedPerMin == 0 {
		c.CoachRateLimitAllowedPerMin = 10
	}
	if c.AuthSessionTTLHours == 0 {
		c.AuthSessionTTLHours = 24 * 7
	}
	if c.AutosaveIntervalSeconds == 0 {
		c.AutosaveIntervalSeconds = 30
	}
	if c.SessionIdleMinutes == 0 {
		c.SessionIdleMinutes = 5
	}
	if c.LLMModel == "" {
		c.LLMModel = "gpt-4o-mini"
	}
	if c.LLMTimeoutSeconds == 0 {
		c.LLMTimeoutSeconds = 60
	}
	if c.LLMCacheSizeMB == 0 {
		c.LLMCacheSizeMB = 16
	}
	if c.LLMCacheTTLMinutes == 0 {
		c.LLMCacheTTLMinutes = 60
	}
}

func (c *Config) AuthSessionTTL() time.Duration {
	return time.Duration(c.AuthSessionTTLHours) * time.Hour
}

func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveIntervalSeconds) * time.Second
}

// SessionIdleTimeout is how long a live workout session may go without a
// request before it is saved and dropped from memory.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c *Config) LLMCacheTTL() time.Duration {
	return time.Duration(c.LLMCacheTTLMinutes) * time.Minute
}

// Secrets never live in the TOML file.
type Secrets struct {
	PostgresPassword string `env:"FITCOACH_POSTGRES_PASS"`
	RedisPassword    string `env:"FITCOACH_REDIS_PASS"`
	SentryDSN        string `env:"SENTRY_DSN"`
	IpInfoAPIKey     string `env:"IP_INFO_API_KEY"`
	LLMAPIKey        string `env:"FITCOACH_LLM_API_KEY"`
	MCPSecret        string `env:"FITCOACH_MCP_SECRET"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED" envDefault:"false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
	OtelServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"fitcoach-backend"`
}

// LoadSecrets reads secrets from the environment. A .env file, when present
// at dotenvPath, is loaded first without overriding already set variables.
func LoadSecrets(dotenvPath string) (*Secrets, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
			}
			log.Debugf("no dotenv file at [%s]", dotenvPath)
		}
	}

	var secrets Secrets
	if err := env.Parse(&secrets); err != nil {
		return nil, fmt.Errorf("parse env secrets: %w", err)
	}
	return &secrets, nil
}

// Warn logs missing optional secrets, so misconfiguration is visible at start-up.
func (s *Secrets) Warn() {
	if s.LLMAPIKey == "" {
		log.Warnln("llm api key not set, use FITCOACH_LLM_API_KEY; coach features will fail")
	}
	if s.IpInfoAPIKey == "" {
		log.Warnln("ip info API key not set, use IP_INFO_API_KEY; unit system defaults to metric")
	}
	if s.MCPSecret == "" {
		log.Warnln("mcp secret not set, use FITCOACH_MCP_SECRET; /mcp is disabled")
	}
	if s.HoneycombEnabled && s.HoneycombAPIKey == "" {
		log.Warnln("HONEYCOMB_API_KEY env var not set")
	}
}
