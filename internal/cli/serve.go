package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bikerent/internal/rentals/handler"
	"bikerent/internal/rentals/notify"
	"bikerent/internal/rentals/scanner"
	"bikerent/internal/rentals/service"
	"bikerent/internal/rentals/validator"
	"bikerent/pkg/app"
	"bikerent/pkg/config"
	"bikerent/pkg/kafka"
	kafka_config "bikerent/pkg/kafka/config"
	kafka_middleware "bikerent/pkg/kafka/middleware"
)

type serveOptions struct {
	storage string
	port    string
}

func NewServe() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the overdue scanner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.storage, "storage", "", "storage backend (mongo|postgres|memory), overrides STORAGE_TYPE")
	cmd.Flags().StringVar(&opts.port, "port", "", "HTTP port, overrides PORT")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	ctx := cmd.Context()

	cfg := config.Load(ServiceName)
	if err := applyOverrides(cfg, opts); err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	dispatcher, closeDispatcher, err := newDispatcher(cfg)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	rentalService := service.NewRentalService(
		store.rentals,
		store.directory,
		validator.NewRentalValidator(cfg.Log),
		cfg.Log,
	)

	overdueScanner := scanner.NewOverdueScanner(
		store.rentals,
		dispatcher,
		scanner.Config{
			Interval:          cfg.OverdueScanInterval,
			Message:           cfg.OverdueMessage,
			SuppressionWindow: cfg.OverdueSuppressionWindow,
		},
		cfg.Log,
	)

	application := app.NewApplication(cfg)
	application.SetApp(
		handler.NewRentalHandler(rentalService, cfg.Log),
		handler.NewHealthHandler(store.pinger, cfg.Log),
	)
	application.AddWorker(overdueScanner)

	return application.RunContext(ctx)
}

func applyOverrides(cfg *config.Config, opts *serveOptions) error {
	if opts.storage == "" && opts.port == "" {
		return nil
	}
	if opts.storage != "" {
		cfg.StorageType = opts.storage
	}
	if opts.port != "" {
		cfg.Port = opts.port
	}
	return cfg.Validate()
}

// newDispatcher publishes to Kafka when notifications are enabled and only
// logs otherwise.
func newDispatcher(cfg *config.Config) (scanner.NotificationDispatcher, func(), error) {
	if !cfg.NotificationEnabled {
		cfg.Log.Info("Overdue notifications are logged only")
		return notify.NewLogDispatcher(cfg.Log, cfg.OverdueSubject), func() {}, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load kafka config: %w", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationTopic, cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}

	closeProducer := func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close kafka producer", "error", err)
		}
	}

	cfg.Log.Info("Overdue notifications published to Kafka", "topic", producer.Topic())
	return notify.NewKafkaDispatcher(producer, cfg.OverdueSubject, ServiceName), closeProducer, nil
}
