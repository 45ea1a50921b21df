package services

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"auction-platform/internal/cache"
	"auction-platform/internal/domain"
	"auction-platform/internal/schedule"
	"auction-platform/pkg/logger"
)

// WindowID derives the canonical window identifier from its opening instant.
// Registration requests address windows by this date form.
func WindowID(opening time.Time) string {
	return opening.Format("2006-01-02")
}

// WindowProvisioner keeps the window table ahead of the schedule: a periodic
// sweep creates the next occurrence's row and reconciles the status of past
// rows. Only the leader instance writes, so concurrent instances do not race
// on provisioning.
type WindowProvisioner struct {
	cron        *cron.Cron
	repo        domain.WindowRepository
	schedule    schedule.WeeklySchedule
	leader      domain.LeaderElection
	instanceID  string
	clock       clockwork.Clock
	maxBuyers   *int
	maxSellers  *int
	invalidator domain.InvalidationPublisher
	log         logger.Logger
}

func NewWindowProvisioner(
	repo domain.WindowRepository,
	sched schedule.WeeklySchedule,
	leader domain.LeaderElection,
	instanceID string,
	clock clockwork.Clock,
	maxBuyers, maxSellers *int,
	invalidator domain.InvalidationPublisher,
	log logger.Logger,
) *WindowProvisioner {
	return &WindowProvisioner{
		cron:        cron.New(cron.WithSeconds()),
		repo:        repo,
		schedule:    sched,
		leader:      leader,
		instanceID:  instanceID,
		clock:       clock,
		maxBuyers:   maxBuyers,
		maxSellers:  maxSellers,
		invalidator: invalidator,
		log:         log,
	}
}

func (p *WindowProvisioner) Start(ctx context.Context) error {
	p.log.Info("Starting window provisioner")

	_, err := p.cron.AddFunc("@every 1m", func() {
		p.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	p.cron.Start()
	return nil
}

func (p *WindowProvisioner) Stop() error {
	p.log.Info("Stopping window provisioner")
	p.cron.Stop()
	return nil
}

// Sweep runs one provisioning pass. Idempotent: re-running against an
// up-to-date table changes nothing.
func (p *WindowProvisioner) Sweep(ctx context.Context) {
	isLeader, err := p.leader.IsLeader(ctx, p.instanceID)
	if err != nil {
		p.log.Error("Failed to check leadership", "error", err)
		return
	}
	if !isLeader {
		return
	}

	if err := p.ensureNextWindow(ctx); err != nil {
		p.log.Error("Failed to provision next window", "error", err)
	}
	if err := p.reconcileStatuses(ctx); err != nil {
		p.log.Error("Failed to reconcile window statuses", "error", err)
	}
}

func (p *WindowProvisioner) ensureNextWindow(ctx context.Context) error {
	now := p.clock.Now()
	opening := p.schedule.NextOpening(now)

	// While the window is running, the row for today already exists; keep
	// provisioning one occurrence ahead anyway.
	window := &domain.AuctionWindow{
		ID:         WindowID(opening),
		StartTime:  opening,
		Status:     domain.WindowScheduled,
		MaxBuyers:  p.maxBuyers,
		MaxSellers: p.maxSellers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := p.repo.GetWindow(ctx, window.ID); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrAuctionNotFound) {
		return err
	}

	if err := p.repo.CreateWindow(ctx, window); err != nil {
		return err
	}
	p.log.Info("Provisioned auction window",
		"window_id", window.ID, "start_time", window.StartTime)

	if err := p.invalidator.PublishInvalidation(ctx, cache.AuctionsTag); err != nil {
		p.log.Error("Failed to invalidate auctions listing", "error", err)
	}
	return nil
}

// reconcileStatuses moves windows through scheduled -> open -> closed as the
// clock passes their boundaries. Windows are never deleted.
func (p *WindowProvisioner) reconcileStatuses(ctx context.Context) error {
	windows, err := p.repo.ListWindows(ctx)
	if err != nil {
		return err
	}

	now := p.clock.Now()
	for _, w := range windows {
		closing := p.schedule.ClosingOf(w.StartTime)

		var want domain.WindowStatus
		switch {
		case now.Before(w.StartTime):
			want = domain.WindowScheduled
		case now.Before(closing):
			want = domain.WindowOpen
		default:
			want = domain.WindowClosed
		}

		if w.Status == want {
			continue
		}
		if err := p.repo.UpdateWindowStatus(ctx, w.ID, want); err != nil {
			return err
		}
		p.log.Info("Window status changed",
			"window_id", w.ID, "from", w.Status.String(), "to", want.String())

		if err := p.invalidator.PublishInvalidation(ctx, cache.AuctionsTag, cache.AuctionTag(w.ID)); err != nil {
			p.log.Error("Failed to invalidate window caches", "window_id", w.ID, "error", err)
		}
	}
	return nil
}
