package config

import "time"

type Config struct {
	AppName                       string `env:"APP_NAME" env-default:"rye-api"`
	Port                          int    `env:"PORT" env-default:"3000"`
	LogLevel                      string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool   `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int    `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int    `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int    `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	StartupMaxAttempts            int    `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Database driver
	DatabaseDriver string `env:"DB_DRIVER" env-default:"postgres"`
	// Database host
	DatabaseHost string `env:"DB_HOST" env-default:""`
	// Database port
	DatabasePort string `env:"DB_PORT" env-default:"5432"`
	// Database user
	DatabaseUserName string `env:"DB_USER_NAME" env-default:""`
	// Database user password
	DatabasePassword string `env:"DB_PASSWORD" env-default:""`
	// Database name
	DatabaseName string `env:"DB_NAME" env-default:"rye"`
	// Database SSL Mode
	DatabaseSSLMode string `env:"DB_SSL_MODE" env-default:"disable"`
	// Max Open Conns
	DatabaseMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	// Max Idle Conns
	DatabaseMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	// Conn Max Lifetime
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	// Migration Folder Path
	DatabaseMigrationFolderPath string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	// Database Migration Version
	DatabaseMigrationVersion int `env:"DB_MIGRATION_VERSION" env-default:"0"`
	// Database Migration Force
	DatabaseMigrationForce int `env:"DB_MIGRATION_FORCE" env-default:"0"`
	// Database Migration Auto Rollback
	DatabaseMigrationAutoRollback bool `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Auth Issuer URL
	AuthIssuerURL string `env:"AUTH_ISSUER_URL" env-default:""`
	// Auth Client ID
	AuthClientID string `env:"AUTH_CLIENT_ID" env-default:""`
	// Auth Enabled - when false, allows X-User-ID and X-User-Role headers for testing
	AuthEnabled bool `env:"AUTH_ENABLED" env-default:"false"`

	// Redis host
	RedisHost string `env:"REDIS_HOST" env-default:"localhost"`
	// Redis port
	RedisPort int `env:"REDIS_PORT" env-default:"6379"`
	// Redis password
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	// Redis database number
	RedisDB int `env:"REDIS_DB" env-default:"0"`
	// Enable/disable the redis view cache
	CacheEnabled bool `env:"CACHE_ENABLED" env-default:"true"`
	// TTL for the cached active watchlist view
	CacheWatchlistTTL time.Duration `env:"CACHE_WATCHLIST_TTL" env-default:"1h"`
	// TTL for the cached catalog view
	CacheCatalogTTL time.Duration `env:"CACHE_CATALOG_TTL" env-default:"30m"`

	// Notifier settings
	// Interval between notification batch runs
	NotifierInterval time.Duration `env:"NOTIFIER_INTERVAL" env-default:"1h"`
	// Lookback window for users with no recorded watermark
	NotifierDefaultLookback time.Duration `env:"NOTIFIER_DEFAULT_LOOKBACK" env-default:"1h"`
	// Maximum change events reported per product per run
	NotifierMaxEventsPerProduct int `env:"NOTIFIER_MAX_EVENTS_PER_PRODUCT" env-default:"10"`
	// Enable/disable the notification scheduler
	NotifierEnabled bool `env:"NOTIFIER_ENABLED" env-default:"true"`
	// Acquire a redis lease before each run so only one instance sends
	NotifierUseRedisLease bool `env:"NOTIFIER_USE_REDIS_LEASE" env-default:"false"`
	// TTL of the redis run lease
	NotifierLeaseTTL time.Duration `env:"NOTIFIER_LEASE_TTL" env-default:"15m"`

	// SMTP settings for the digest sink
	SMTPHost string `env:"SMTP_HOST" env-default:"localhost"`
	SMTPPort int    `env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `env:"SMTP_USER" env-default:""`
	SMTPPass string `env:"SMTP_PASS" env-default:""`
	// From address on digest emails
	SMTPFrom string `env:"SMTP_FROM" env-default:"noreply@rye.local"`
	// Base URL used in digest footer links
	FrontendURL string `env:"FRONTEND_URL" env-default:"http://localhost:5173"`

	// Tracing settings
	// Enable OTLP tracing export (set to true to send traces to collector)
	OTLPEnabled bool `env:"OTLP_ENABLED" env-default:"false"`
	// OTLP collector endpoint
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	// OTLP protocol (grpc or http)
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	// Disable TLS for OTLP (for local development)
	OTLPInsecure bool `env:"OTLP_INSECURE" env-default:"true"`
}
