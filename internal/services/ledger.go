package services

import (
	"context"

	"github.com/jonboulle/clockwork"

	"auction-platform/internal/cache"
	"auction-platform/internal/domain"
	"auction-platform/internal/schedule"
	"auction-platform/pkg/logger"
)

// Ledger is the server-side authority over seat registrations. It validates
// the request against the live window state and delegates the atomic
// check-and-increment to the store, then fans out cache invalidations for the
// affected tags.
type Ledger struct {
	store       domain.LedgerStore
	schedule    schedule.WeeklySchedule
	clock       clockwork.Clock
	invalidator domain.InvalidationPublisher
	log         logger.Logger
}

func NewLedger(
	store domain.LedgerStore,
	sched schedule.WeeklySchedule,
	clock clockwork.Clock,
	invalidator domain.InvalidationPublisher,
	log logger.Logger,
) *Ledger {
	return &Ledger{
		store:       store,
		schedule:    sched,
		clock:       clock,
		invalidator: invalidator,
		log:         log,
	}
}

// Register claims a seat for the participant. The returned existed flag is
// true when the participant already held a registration; that case is a
// success and does not touch the counters.
//
// Errors: ErrInvalidRole, ErrAuctionNotFound, ErrRegistrationClosed,
// ErrCapacityExceeded.
func (l *Ledger) Register(ctx context.Context, auctionID, participantID string, role domain.Role) (*domain.Registration, bool, error) {
	if !role.Valid() {
		return nil, false, domain.ErrInvalidRole
	}

	window, err := l.store.GetWindow(ctx, auctionID)
	if err != nil {
		return nil, false, err
	}

	// Archived windows are read-only. The second clause also catches rows
	// whose occurrence has passed but whose status sweep has not caught up.
	now := l.clock.Now()
	if window.Status == domain.WindowClosed || !now.Before(l.schedule.ClosingOf(window.StartTime)) {
		return nil, false, domain.ErrRegistrationClosed
	}

	// Checked against the live clock, never a cached state.
	state := l.schedule.StateAt(now)
	if !state.RegistrationOpen {
		return nil, false, domain.ErrRegistrationClosed
	}

	reg, existed, err := l.store.ClaimSeat(ctx, auctionID, participantID, role)
	if err != nil {
		l.log.Warn("Registration rejected",
			"auction_id", auctionID, "participant_id", participantID,
			"role", string(role), "error", err)
		return nil, false, err
	}

	if existed {
		l.log.Debug("Registration already held",
			"auction_id", auctionID, "participant_id", participantID,
			"role", string(reg.Role))
		return reg, true, nil
	}

	l.log.Info("Registration created",
		"auction_id", auctionID, "participant_id", participantID,
		"role", string(role), "registration_id", reg.ID)

	tags := []string{
		cache.AuctionTag(auctionID),
		cache.AuctionRoleTag(auctionID, participantID),
	}
	if err := l.invalidator.PublishInvalidation(ctx, tags...); err != nil {
		// The seat is committed; the caches recover via TTL.
		l.log.Error("Failed to publish cache invalidation",
			"tags", tags, "error", err)
	}

	return reg, false, nil
}

// Window returns the authoritative window row.
func (l *Ledger) Window(ctx context.Context, auctionID string) (*domain.AuctionWindow, error) {
	return l.store.GetWindow(ctx, auctionID)
}

// State reports the window state at the current instant.
func (l *Ledger) State() domain.WindowState {
	return l.schedule.StateAt(l.clock.Now())
}
