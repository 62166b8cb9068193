package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBDriver   = DriverMySQL
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "fieldkit"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultSQLiteFile = "fieldkit.db"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0
	defaultLogsDir    = "logs"

	defaultPlaceholderLabel   = "New Field"
	defaultSessionIdleTimeout = 30 * time.Minute
	defaultCleanupInterval    = 5 * time.Minute

	defaultRateLimitMax    = 200
	defaultRateLimitWindow = time.Second
)
