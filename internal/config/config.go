package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreBackendMemory   = "memory"
	StoreBackendBadger   = "badger"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"

	RescuePolicyAuto   = "auto"
	RescuePolicyPrompt = "prompt"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsPort int    `toml:"metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// user & calendar
	Timezone string `toml:"timezone"`
	UserID   string `toml:"user_id"`

	// store
	StoreBackend      string `toml:"store_backend"`
	StoreCacheEnabled bool   `toml:"store_cache_enabled"`
	StoreCacheSizeMB  int    `toml:"store_cache_size_mb"`
	BadgerPath        string `toml:"badger_path"`
	RedisHost         string `toml:"redis_host"`
	RedisPort         string `toml:"redis_port"`
	PostgresHost      string `toml:"postgres_host"`
	PostgresPort      string `toml:"postgres_port"`
	PostgresDBName    string `toml:"postgres_db_name"`

	// streaks
	RescuePolicy         string `toml:"rescue_policy"`
	RescueCost           int    `toml:"rescue_cost"`
	CarryoverWeightsOnly bool   `toml:"carryover_weights_only"`
	MaxFinalizeWeeks     int    `toml:"max_finalize_weeks"`
	FinalizeCron         string `toml:"finalize_cron"`

	RateLimitPerMin int      `toml:"rate_limit_per_min"`
	AllowedOrigins  []string `toml:"allowed_origins"`

	// tracing: none, stdout or otlp
	TraceExporter string `toml:"trace_exporter"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
}

// Secrets are never stored in the TOML file, they come from the environment.
type Secrets struct {
	SentryDSN        string `envconfig:"SENTRY_DSN"`
	RedisPassword    string `envconfig:"REDIS_PASS"`
	PostgresPassword string `envconfig:"POSTGRES_PASS"`
}

type Toml struct {
	Development *Config
	Production  *Config
	DockerDev   *Config `toml:"dockerdev"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "ddev", "dockerdev":
		cfg = t.DockerDev
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("env [%s] not present in config", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path, picks the config for env, applies defaults and validates it.
func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode toml file [%s]: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func LoadSecrets() (*Secrets, error) {
	var secrets Secrets
	if err := envconfig.Process("gymstreak", &secrets); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}
	return &secrets, nil
}

func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 2112
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Belgrade"
	}
	if c.UserID == "" {
		c.UserID = "default"
	}
	if c.StoreBackend == "" {
		c.StoreBackend = StoreBackendBadger
	}
	if c.StoreCacheSizeMB == 0 {
		c.StoreCacheSizeMB = 16
	}
	if c.BadgerPath == "" {
		c.BadgerPath = "./data/badger"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.RescuePolicy == "" {
		c.RescuePolicy = RescuePolicyAuto
	}
	if c.RescueCost == 0 {
		c.RescueCost = 1
	}
	if c.MaxFinalizeWeeks == 0 {
		c.MaxFinalizeWeeks = 520
	}
	if c.FinalizeCron == "" {
		c.FinalizeCron = "5 0 * * 1"
	}
	if c.RateLimitPerMin == 0 {
		c.RateLimitPerMin = 120
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:8080"}
	}
	if c.TraceExporter == "" {
		c.TraceExporter = "none"
	}
	if c.OTLPEndpoint == "" {
		c.OTLPEndpoint = "localhost:4317"
	}
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendMemory, StoreBackendBadger, StoreBackendRedis, StoreBackendPostgres:
	default:
		return fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}
	switch c.RescuePolicy {
	case RescuePolicyAuto, RescuePolicyPrompt:
	default:
		return fmt.Errorf("unknown rescue policy: %s", c.RescuePolicy)
	}
	switch c.TraceExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown trace exporter: %s", c.TraceExporter)
	}
	if c.RescueCost < 1 {
		return errors.New("rescue cost must be greater than 0")
	}
	if c.MaxFinalizeWeeks < 1 {
		return errors.New("max finalize weeks must be greater than 0")
	}
	if c.UserID == "" {
		return errors.New("user id empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("load timezone [%s]: %w", c.Timezone, err)
	}
	if c.StoreBackend == StoreBackendPostgres && (c.PostgresHost == "" || c.PostgresDBName == "") {
		return errors.New("postgres host or db name empty")
	}
	if c.StoreBackend == StoreBackendRedis && c.RedisHost == "" {
		return errors.New("redis host empty")
	}
	return nil
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
