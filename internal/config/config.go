package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at configPath, applies it over the defaults and
// validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config content. Unknown keys are rejected.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()

	raw := rawAppConfig{}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Driver:    defaultDBDriver,
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Enable: true,
			Host:   defaultRedisHost,
			Port:   defaultRedisPort,
			DB:     defaultRedisDB,
		},
		Paths: RuntimePathsConfig{Logs: defaultLogsDir},
		Builder: BuilderRuntimeConfig{
			PlaceholderLabel:   defaultPlaceholderLabel,
			SessionIdleTimeout: defaultSessionIdleTimeout,
			CleanupInterval:    defaultCleanupInterval,
		},
		RateLimit: RateLimitRuntimeConfig{
			Enable: true,
			Max:    defaultRateLimitMax,
			Window: defaultRateLimitWindow,
		},
	}
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	cfg.Env = normalizeEnv(cfg.Env)

	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	for _, v := range []string{raw.Paths.Logs, raw.LogDir, raw.LogsDir} {
		if v = strings.TrimSpace(v); v != "" {
			cfg.Paths.Logs = v
		}
	}

	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}

	builder, err := applyRawBuilderConfig(cfg.Builder, raw.Builder)
	if err != nil {
		return err
	}
	cfg.Builder = builder

	limit, err := applyRawRateLimitConfig(cfg.RateLimit, raw.RateLimit)
	if err != nil {
		return err
	}
	cfg.RateLimit = limit

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return nil
}

func applyRawDatabaseConfig(cfg DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	db := raw.Database
	if v := strings.TrimSpace(db.Driver); v != "" {
		cfg.Driver = v
	}
	for _, v := range []string{raw.DSN, raw.DatabaseURL, db.URL, db.DSN} {
		if v = strings.TrimSpace(v); v != "" {
			cfg.DSN = v
		}
	}
	for _, v := range []string{raw.DBHost, db.Host} {
		if v = strings.TrimSpace(v); v != "" {
			cfg.Host = v
		}
	}
	for _, v := range []int{raw.DBPort, db.Port} {
		if v != 0 {
			cfg.Port = v
		}
	}
	for _, v := range []string{raw.DBUser, db.Username, db.User} {
		if v = strings.TrimSpace(v); v != "" {
			cfg.User = v
		}
	}
	for _, v := range []string{raw.DBPassword, db.Password} {
		if v != "" {
			cfg.Password = v
		}
	}
	for _, v := range []string{raw.DBName, db.DBName, db.Name} {
		if v = strings.TrimSpace(v); v != "" {
			cfg.Name = v
		}
	}
	if v := strings.TrimSpace(db.Charset); v != "" {
		cfg.Charset = v
	}
	if db.ParseTime != nil {
		cfg.ParseTime = *db.ParseTime
	}
	if v := strings.TrimSpace(db.Loc); v != "" {
		cfg.Loc = v
	}
	if db.Params != nil {
		cfg.Params = db.Params
	}
	return normalizeDatabaseConfig(cfg)
}

func applyRawRedisConfig(cfg RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	r := raw.Redis
	if r.Enable != nil {
		cfg.Enable = *r.Enable
	}
	for _, v := range []string{raw.RedisURL, r.URL} {
		if v = strings.TrimSpace(v); v != "" {
			cfg.URL = v
		}
	}
	for _, v := range []string{raw.RedisHost, r.Host} {
		if v = strings.TrimSpace(v); v != "" {
			cfg.Host = v
		}
	}
	for _, v := range []int{raw.RedisPort, r.Port} {
		if v != 0 {
			cfg.Port = v
		}
	}
	if v := strings.TrimSpace(r.Username); v != "" {
		cfg.Username = v
	}
	for _, v := range []string{raw.RedisPassword, r.Password} {
		if v != "" {
			cfg.Password = v
		}
	}
	if raw.RedisDB != nil {
		cfg.DB = *raw.RedisDB
	}
	if r.DB != nil {
		cfg.DB = *r.DB
	}
	if r.TLS != nil {
		cfg.TLS = *r.TLS
	}
	if r.Params != nil {
		cfg.Params = r.Params
	}
	return normalizeRedisConfig(cfg)
}

func applyRawBuilderConfig(cfg BuilderRuntimeConfig, raw rawBuilderConfig) (BuilderRuntimeConfig, error) {
	if v := strings.TrimSpace(raw.PlaceholderLabel); v != "" {
		cfg.PlaceholderLabel = v
	}
	if raw.PreserveManualIdentifiers != nil {
		cfg.PreserveManualIdentifiers = *raw.PreserveManualIdentifiers
	}
	if v := strings.TrimSpace(raw.SessionIdleTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid builder.session_idle_timeout %q: %w", v, err)
		}
		cfg.SessionIdleTimeout = d
	}
	if v := strings.TrimSpace(raw.CleanupInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid builder.cleanup_interval %q: %w", v, err)
		}
		cfg.CleanupInterval = d
	}
	return cfg, nil
}

func applyRawRateLimitConfig(cfg RateLimitRuntimeConfig, raw rawRateLimitConfig) (RateLimitRuntimeConfig, error) {
	if raw.Enable != nil {
		cfg.Enable = *raw.Enable
	}
	if raw.Max != 0 {
		cfg.Max = raw.Max
	}
	if v := strings.TrimSpace(raw.Window); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid rate_limit.window %q: %w", v, err)
		}
		cfg.Window = d
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("invalid database.driver %q, expected %s or %s", c.Database.Driver, DriverMySQL, DriverSQLite)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if c.Builder.SessionIdleTimeout <= 0 {
		return fmt.Errorf("invalid builder.session_idle_timeout %s, expected > 0", c.Builder.SessionIdleTimeout)
	}
	if c.Builder.CleanupInterval <= 0 {
		return fmt.Errorf("invalid builder.cleanup_interval %s, expected > 0", c.Builder.CleanupInterval)
	}
	if _, err := ParseLocation(c.Timezone); err != nil {
		return err
	}
	if c.RateLimit.Enable && (c.RateLimit.Max <= 0 || c.RateLimit.Window < time.Second) {
		return fmt.Errorf("invalid rate_limit max=%d window=%s, expected max > 0 and window >= 1s", c.RateLimit.Max, c.RateLimit.Window)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return c.Env == defaultEnv
}

// LogDir is paths.logs made absolute via RuntimePath.
func (c *AppConfig) LogDir() string {
	return RuntimePath(c.Paths.Logs, defaultLogsDir)
}
