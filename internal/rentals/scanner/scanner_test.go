package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bikerent/internal/rentals/repository"
	"bikerent/pkg/logger"
	"bikerent/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { close(t.stopped) }

type batch struct {
	message    string
	recipients []string
}

type recordingDispatcher struct {
	sent chan batch
	err  error
}

func newRecordingDispatcher(err error) *recordingDispatcher {
	return &recordingDispatcher{sent: make(chan batch, 10), err: err}
}

func (d *recordingDispatcher) Send(_ context.Context, message string, recipients []string) error {
	d.sent <- batch{message: message, recipients: recipients}
	return d.err
}

func seedRentals(t *testing.T) *repository.MemoryRepository {
	t.Helper()
	repo := repository.NewMemoryRepository()
	ctx := context.Background()

	rentals := []*model.Rental{
		{AssetID: "a1", RenterID: "r1", ContactEmail: "ana@example.com", StartedAt: t0, ExpectedReturnAt: t0.Add(2 * time.Hour)},
		{AssetID: "a2", RenterID: "r2", ContactEmail: "bruno@example.com", StartedAt: t0, ExpectedReturnAt: t0.Add(time.Hour)},
		{AssetID: "a3", RenterID: "r3", ContactEmail: "carla@example.com", StartedAt: t0, ExpectedReturnAt: t0.Add(48 * time.Hour)},
	}
	for _, r := range rentals {
		require.NoError(t, repo.Create(ctx, r))
	}
	return repo
}

func TestScan_ForwardsOverdueContacts(t *testing.T) {
	repo := seedRentals(t)
	clock := &fakeClock{now: t0.Add(3 * time.Hour)}
	dispatcher := newRecordingDispatcher(nil)

	s := NewOverdueScanner(repo, dispatcher, Config{Message: "please return the bike"}, logger.Discard(), WithClock(clock))

	n, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := <-dispatcher.sent
	assert.Equal(t, "please return the bike", got.message)
	assert.Equal(t, []string{"bruno@example.com", "ana@example.com"}, got.recipients)
}

func TestScan_NothingOverdueSkipsDispatch(t *testing.T) {
	repo := seedRentals(t)
	clock := &fakeClock{now: t0}
	dispatcher := newRecordingDispatcher(nil)

	s := NewOverdueScanner(repo, dispatcher, Config{}, logger.Discard(), WithClock(clock))

	n, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, dispatcher.sent)
}

func TestScan_DispatchFailureIsReported(t *testing.T) {
	repo := seedRentals(t)
	clock := &fakeClock{now: t0.Add(3 * time.Hour)}
	dispatcher := newRecordingDispatcher(errors.New("broker down"))

	s := NewOverdueScanner(repo, dispatcher, Config{}, logger.Discard(), WithClock(clock))

	_, err := s.Scan(context.Background())
	assert.Error(t, err)
	require.Len(t, dispatcher.sent, 1)

	// a failed batch is offered again on the next cycle
	dispatcher.err = nil
	n, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestScan_SuppressionWindow(t *testing.T) {
	repo := seedRentals(t)
	clock := &fakeClock{now: t0.Add(90 * time.Minute)}
	dispatcher := newRecordingDispatcher(nil)

	s := NewOverdueScanner(repo, dispatcher, Config{SuppressionWindow: time.Hour}, logger.Discard(), WithClock(clock))
	ctx := context.Background()

	n, err := s.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	clock.Advance(40 * time.Minute)
	n, err = s.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the newly overdue rental is sent")
	assert.Equal(t, []string{"bruno@example.com"}, (<-dispatcher.sent).recipients)
	assert.Equal(t, []string{"ana@example.com"}, (<-dispatcher.sent).recipients)

	clock.Advance(30 * time.Minute)
	n, err = s.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the first rental is due again after the window")
	assert.Equal(t, []string{"bruno@example.com"}, (<-dispatcher.sent).recipients)
}

func TestRun_SameRentalOnConsecutiveTicks(t *testing.T) {
	repo := seedRentals(t)
	clock := &fakeClock{now: t0.Add(90 * time.Minute)}
	dispatcher := newRecordingDispatcher(nil)
	ticker := newFakeTicker()

	s := NewOverdueScanner(repo, dispatcher, Config{Interval: time.Minute}, logger.Discard(),
		WithClock(clock),
		WithTicker(func(d time.Duration) Ticker {
			assert.Equal(t, time.Minute, d)
			return ticker
		}),
	)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	for i := 0; i < 2; i++ {
		ticker.ch <- clock.Now()
		select {
		case got := <-dispatcher.sent:
			assert.Equal(t, []string{"bruno@example.com"}, got.recipients)
		case <-time.After(time.Second):
			t.Fatal("no dispatch after tick")
		}
	}

	s.Stop()
	select {
	case <-ticker.stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker not stopped")
	}

	// stopping twice is harmless
	s.Stop()
}

func TestNewOverdueScanner_DefaultInterval(t *testing.T) {
	s := NewOverdueScanner(repository.NewMemoryRepository(), newRecordingDispatcher(nil), Config{}, logger.Discard())
	assert.Equal(t, DefaultInterval, s.cfg.Interval)
	assert.Equal(t, "overdue-scanner", s.Name())
}
