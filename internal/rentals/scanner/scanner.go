package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"bikerent/internal/rentals/metrics"
	"bikerent/internal/rentals/repository"
	"bikerent/pkg/logger"
	"bikerent/pkg/model"
)

const DefaultInterval = 10 * time.Minute

var ErrAlreadyRunning = errors.New("overdue scanner already running")

// NotificationDispatcher delivers one message to a batch of contact addresses.
type NotificationDispatcher interface {
	Send(ctx context.Context, message string, recipients []string) error
}

type Config struct {
	Interval time.Duration
	Message  string
	// SuppressionWindow skips rentals notified less than this long ago. Zero
	// notifies every overdue rental on every tick.
	SuppressionWindow time.Duration
}

// OverdueScanner periodically looks up open rentals past their expected return
// and hands their contact addresses to a dispatcher. It never writes to the ledger.
type OverdueScanner struct {
	rentals    repository.RentalRepository
	dispatcher NotificationDispatcher
	cfg        Config
	log        *logger.Logger

	clock     Clock
	newTicker TickerFactory

	mu       sync.Mutex
	notified map[string]time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

type Option func(*OverdueScanner)

func WithClock(c Clock) Option {
	return func(s *OverdueScanner) { s.clock = c }
}

func WithTicker(f TickerFactory) Option {
	return func(s *OverdueScanner) { s.newTicker = f }
}

func NewOverdueScanner(
	rentals repository.RentalRepository,
	dispatcher NotificationDispatcher,
	cfg Config,
	log *logger.Logger,
	opts ...Option,
) *OverdueScanner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	s := &OverdueScanner{
		rentals:    rentals,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.Component("overdue-scanner"),
		clock:      realClock{},
		newTicker:  newRealTicker,
		notified:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OverdueScanner) Name() string {
	return "overdue-scanner"
}

// Run scans on every tick until ctx is cancelled.
func (s *OverdueScanner) Run(ctx context.Context) error {
	ticker := s.newTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info("Overdue scanner started", "interval", s.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Overdue scanner stopped")
			return nil
		case <-ticker.C():
			// failures are logged inside Scan and retried on the next tick
			_, _ = s.Scan(ctx)
		}
	}
}

// Start runs the scanner in the background until Stop is called or ctx ends.
func (s *OverdueScanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	return nil
}

// Stop cancels a running scanner and waits for the loop to exit.
func (s *OverdueScanner) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Scan runs one cycle and returns how many rentals were included in the batch.
func (s *OverdueScanner) Scan(ctx context.Context) (int, error) {
	now := s.clock.Now()

	overdue, err := s.rentals.FindOverdue(ctx, now)
	if err != nil {
		metrics.OverdueScans.WithLabelValues(metrics.ResultFailure).Inc()
		s.log.Error("Failed to query overdue rentals", "error", err)
		return 0, err
	}
	metrics.OverdueScans.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.OverdueRentals.Set(float64(len(overdue)))

	batch := s.selectForNotification(overdue, now)
	if len(batch) == 0 {
		s.log.Debug("No overdue rentals to notify", "overdue", len(overdue))
		return 0, nil
	}

	recipients := make([]string, 0, len(batch))
	for _, rental := range batch {
		recipients = append(recipients, rental.ContactEmail)
	}

	if err := s.dispatcher.Send(ctx, s.cfg.Message, recipients); err != nil {
		metrics.NotificationsDispatched.WithLabelValues(metrics.ResultFailure).Inc()
		s.log.Error("Failed to dispatch overdue notifications",
			"recipients", len(recipients),
			"error", err,
		)
		return 0, err
	}
	metrics.NotificationsDispatched.WithLabelValues(metrics.ResultSuccess).Inc()

	s.markNotified(batch, now)
	s.log.Info("Overdue notifications dispatched", "recipients", len(recipients))
	return len(batch), nil
}

func (s *OverdueScanner) selectForNotification(overdue []*model.Rental, now time.Time) []*model.Rental {
	if s.cfg.SuppressionWindow <= 0 {
		return overdue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, at := range s.notified {
		if now.Sub(at) >= s.cfg.SuppressionWindow {
			delete(s.notified, id)
		}
	}

	batch := make([]*model.Rental, 0, len(overdue))
	for _, rental := range overdue {
		if _, recent := s.notified[rental.ID]; !recent {
			batch = append(batch, rental)
		}
	}
	return batch
}

func (s *OverdueScanner) markNotified(batch []*model.Rental, now time.Time) {
	if s.cfg.SuppressionWindow <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rental := range batch {
		s.notified[rental.ID] = now
	}
}
