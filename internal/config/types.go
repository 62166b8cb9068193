package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production"
	DSN            string // resolved for Database.Driver
	RedisURL       string
	Database       DatabaseRuntimeConfig
	Redis          RedisRuntimeConfig
	AllowedOrigins []string
	Paths          RuntimePathsConfig
	Timezone       string
	Builder        BuilderRuntimeConfig
	RateLimit      RateLimitRuntimeConfig
}

type DatabaseRuntimeConfig struct {
	Driver    string
	DSN       string
	Host      string
	Port      int
	User      string
	Password  string
	Name      string
	Charset   string
	ParseTime bool
	Loc       string
	Params    map[string]string
}

type RedisRuntimeConfig struct {
	Enable   bool
	URL      string
	Host     string
	Port     int
	Username string
	Password string
	DB       int
	TLS      bool
	Params   map[string]string
}

type RuntimePathsConfig struct {
	Logs string
}

// BuilderRuntimeConfig tunes the schema builder sessions.
type BuilderRuntimeConfig struct {
	PlaceholderLabel          string
	PreserveManualIdentifiers bool
	SessionIdleTimeout        time.Duration
	CleanupInterval           time.Duration
}

// RateLimitRuntimeConfig caps requests per client IP. It only applies when
// Redis is enabled.
type RateLimitRuntimeConfig struct {
	Enable bool
	Max    int
	Window time.Duration
}

type rawAppConfig struct {
	Port               int                `yaml:"port"`
	Env                string             `yaml:"env"`
	NodeEnv            string             `yaml:"node_env"`
	DSN                string             `yaml:"dsn"`
	DatabaseURL        string             `yaml:"database_url"`
	RedisURL           string             `yaml:"redis_url"`
	Database           rawDatabaseConfig  `yaml:"database"`
	Redis              rawRedisConfig     `yaml:"redis"`
	DBHost             string             `yaml:"db_host"`
	DBPort             int                `yaml:"db_port"`
	DBUser             string             `yaml:"db_user"`
	DBPassword         string             `yaml:"db_password"`
	DBName             string             `yaml:"db_name"`
	RedisHost          string             `yaml:"redis_host"`
	RedisPort          int                `yaml:"redis_port"`
	RedisPassword      string             `yaml:"redis_password"`
	RedisDB            *int               `yaml:"redis_db"`
	AllowedOrigins     []string           `yaml:"allowed_origins"`
	CORSAllowedOrigins []string           `yaml:"cors_allowed_origins"`
	Paths              rawPathsConfig     `yaml:"paths"`
	LogDir             string             `yaml:"log_dir"`
	LogsDir            string             `yaml:"logs_dir"`
	Timezone           string             `yaml:"timezone"`
	Builder            rawBuilderConfig   `yaml:"builder"`
	RateLimit          rawRateLimitConfig `yaml:"rate_limit"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Enable   *bool             `yaml:"enable"`
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Params   map[string]string `yaml:"params"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawBuilderConfig struct {
	PlaceholderLabel          string `yaml:"placeholder_label"`
	PreserveManualIdentifiers *bool  `yaml:"preserve_manual_identifiers"`
	SessionIdleTimeout        string `yaml:"session_idle_timeout"`
	CleanupInterval           string `yaml:"cleanup_interval"`
}

type rawRateLimitConfig struct {
	Enable *bool  `yaml:"enable"`
	Max    int    `yaml:"max"`
	Window string `yaml:"window"`
}
