package config

const (
	EnvConfigFile = "CONFIG_FILE"

	EnvStorageType = "STORAGE_TYPE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPostgresDSN         = "POSTGRES_DSN"
	EnvPostgresConnTimeout = "POSTGRES_CONN_TIMEOUT"

	EnvMemorySeedFile = "MEMORY_SEED_FILE"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvOverdueScanInterval      = "OVERDUE_SCAN_INTERVAL"
	EnvOverdueSubject           = "OVERDUE_SUBJECT"
	EnvOverdueMessage           = "OVERDUE_MESSAGE"
	EnvOverdueSuppressionWindow = "OVERDUE_SUPPRESSION_WINDOW"

	EnvNotificationEnabled = "NOTIFICATION_ENABLED"
	EnvNotificationTopic   = "NOTIFICATION_TOPIC"
)
