package config

import (
	"bikerent/pkg/client"
	"bikerent/pkg/logger"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	StorageType string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	PostgresDSN         string
	PostgresConnTimeout time.Duration

	MemorySeedFile string

	Port     string
	LogLevel string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	OverdueScanInterval      time.Duration
	OverdueSubject           string
	OverdueMessage           string
	OverdueSuppressionWindow time.Duration

	NotificationEnabled bool
	NotificationTopic   string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration from the environment, falling back to the
// YAML file named by CONFIG_FILE and then to the defaults. Invalid
// configuration is fatal.
func Load(serviceName string) *Config {
	var file map[string]string
	if path := os.Getenv(EnvConfigFile); path != "" {
		values, err := readConfigFile(path)
		if err != nil {
			logger.New(logger.Config{Service: serviceName}).Fatal("Failed to load config file", "error", err)
		}
		file = values
	}

	cfg := load(newSource(os.LookupEnv, file))
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func load(src *source) *Config {
	return &Config{
		StorageType: src.str(EnvStorageType, DefaultStorageType),

		MongoURI:          src.str(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: src.str(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  src.duration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		PostgresDSN:         src.str(EnvPostgresDSN, DefaultPostgresDSN),
		PostgresConnTimeout: src.duration(EnvPostgresConnTimeout, DefaultPostgresConnTimeout),

		MemorySeedFile: src.str(EnvMemorySeedFile, ""),

		Port:     src.str(EnvPort, DefaultPort),
		LogLevel: src.str(EnvLogLevel, DefaultLogLevel),

		RateLimitRequests: src.num(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   src.duration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: src.duration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: src.duration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: src.num(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     src.duration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    src.duration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     src.duration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: src.duration(EnvShutdownTimeout, DefaultShutdownTimeout),

		OverdueScanInterval:      src.duration(EnvOverdueScanInterval, DefaultOverdueScanInterval),
		OverdueSubject:           src.str(EnvOverdueSubject, DefaultOverdueSubject),
		OverdueMessage:           src.str(EnvOverdueMessage, DefaultOverdueMessage),
		OverdueSuppressionWindow: src.duration(EnvOverdueSuppressionWindow, DefaultOverdueSuppressionWindow),

		NotificationEnabled: src.boolean(EnvNotificationEnabled, DefaultNotificationEnabled),
		NotificationTopic:   src.str(EnvNotificationTopic, DefaultNotificationTopic),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN, cfg.PostgresConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StorageType {
	case StorageMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StoragePostgres:
		if !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.PostgresDSN) {
			errors = append(errors, "PostgresDSN must start with 'postgres://' or 'postgresql://'")
		}
		if cfg.PostgresConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("PostgresConnTimeout must be positive, got: %s", cfg.PostgresConnTimeout))
		}
	case StorageMemory:
	default:
		errors = append(errors, fmt.Sprintf("StorageType must be one of [%s, %s, %s], got: %s", StorageMongo, StoragePostgres, StorageMemory, cfg.StorageType))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.OverdueScanInterval <= 0 {
		errors = append(errors, fmt.Sprintf("OverdueScanInterval must be positive, got: %s", cfg.OverdueScanInterval))
	}
	if cfg.OverdueSuppressionWindow < 0 {
		errors = append(errors, fmt.Sprintf("OverdueSuppressionWindow cannot be negative, got: %s", cfg.OverdueSuppressionWindow))
	}
	if cfg.OverdueMessage == "" {
		errors = append(errors, "OverdueMessage cannot be empty")
	}
	if cfg.NotificationEnabled && cfg.NotificationTopic == "" {
		errors = append(errors, "NotificationTopic cannot be empty when notifications are enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"storage_type", cfg.StorageType,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"postgres_dsn", redactPostgresDSN(cfg.PostgresDSN),
		"postgres_conn_timeout", cfg.PostgresConnTimeout,
		"memory_seed_file", cfg.MemorySeedFile,
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"overdue_scan_interval", cfg.OverdueScanInterval,
		"overdue_subject", cfg.OverdueSubject,
		"overdue_suppression_window", cfg.OverdueSuppressionWindow,
		"notification_enabled", cfg.NotificationEnabled,
		"notification_topic", cfg.NotificationTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactPostgresDSN(dsn string) string {
	credentialRegex := regexp.MustCompile(`(postgres(ql)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(dsn, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown(ctx context.Context) {
	if cfg.Client != nil {
		cfg.Client.GracefulShutdown(ctx, cfg.Log)
	}
}
