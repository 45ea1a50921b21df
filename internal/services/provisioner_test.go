package services

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-platform/internal/domain"
	"auction-platform/internal/infrastructure/memory"
	"auction-platform/internal/schedule"
	"auction-platform/pkg/logger"
)

type stubLeader struct {
	leading bool
}

func (s *stubLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return s.leading, nil
}

func (s *stubLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return s.leading, nil
}

func (s *stubLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return nil
}

func newTestProvisioner(t *testing.T, now time.Time, leading bool) (*WindowProvisioner, *memory.LedgerStore, *clockwork.FakeClock) {
	t.Helper()

	sched, err := schedule.New("Friday", 7, 22, "UTC")
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(now)
	store := memory.NewLedgerStore(clock)
	p := NewWindowProvisioner(store, sched, &stubLeader{leading: leading},
		"test-instance", clock, intPtr(20), intPtr(5),
		&recordingInvalidator{}, logger.NewNop())
	return p, store, clock
}

func TestSweepProvisionsNextWindow(t *testing.T) {
	p, store, _ := newTestProvisioner(t, closedSaturday, true)

	p.Sweep(context.Background())

	window, err := store.GetWindow(context.Background(), "2024-03-22")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 22, 7, 0, 0, 0, time.UTC), window.StartTime)
	assert.Equal(t, domain.WindowScheduled, window.Status)
	require.NotNil(t, window.MaxBuyers)
	assert.Equal(t, 20, *window.MaxBuyers)
	require.NotNil(t, window.MaxSellers)
	assert.Equal(t, 5, *window.MaxSellers)
}

func TestSweepIsIdempotent(t *testing.T) {
	p, store, _ := newTestProvisioner(t, closedSaturday, true)

	p.Sweep(context.Background())
	p.Sweep(context.Background())

	windows, err := store.ListWindows(context.Background())
	require.NoError(t, err)
	assert.Len(t, windows, 1)
}

func TestSweepDoesNothingWithoutLeadership(t *testing.T) {
	p, store, _ := newTestProvisioner(t, closedSaturday, false)

	p.Sweep(context.Background())

	windows, err := store.ListWindows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestSweepReconcilesStatuses(t *testing.T) {
	p, store, clock := newTestProvisioner(t, closedSaturday, true)

	p.Sweep(context.Background())

	// The following Friday at noon the window is running.
	clock.Advance(time.Date(2024, 3, 22, 12, 0, 0, 0, time.UTC).Sub(closedSaturday))
	p.Sweep(context.Background())

	window, err := store.GetWindow(context.Background(), "2024-03-22")
	require.NoError(t, err)
	assert.Equal(t, domain.WindowOpen, window.Status)

	// Past the close boundary it is archived, never deleted.
	clock.Advance(11 * time.Hour)
	p.Sweep(context.Background())

	window, err = store.GetWindow(context.Background(), "2024-03-22")
	require.NoError(t, err)
	assert.Equal(t, domain.WindowClosed, window.Status)

	windows, err := store.ListWindows(context.Background())
	require.NoError(t, err)
	assert.Len(t, windows, 2) // the closed window plus the freshly provisioned next one
}
