package services

import (
	"context"

	"auction-platform/internal/cache"
	"auction-platform/internal/domain"
)

// StatusResolver combines ledger and window state into the participant-facing
// view, reading through the cache coordinator. It holds no state of its own.
type StatusResolver struct {
	cache *cache.Coordinator
	store domain.LedgerStore
}

func NewStatusResolver(coordinator *cache.Coordinator, store domain.LedgerStore) *StatusResolver {
	return &StatusResolver{
		cache: coordinator,
		store: store,
	}
}

// Resolve reports whether the participant holds a seat in the window and as
// which role. The result is cached under the auction and participant tags so
// a registration invalidates it immediately.
func (r *StatusResolver) Resolve(ctx context.Context, auctionID, participantID string) (domain.ParticipantStatus, error) {
	key := cache.AuctionRoleKey(auctionID, participantID)
	tags := []string{
		cache.AuctionTag(auctionID),
		cache.AuctionRoleTag(auctionID, participantID),
	}

	res, err := r.cache.Get(ctx, key, cache.TTLAuctionRole, tags, func(ctx context.Context) (interface{}, error) {
		reg, err := r.store.GetRegistration(ctx, auctionID, participantID)
		if err != nil {
			return nil, err
		}
		if reg == nil {
			return domain.ParticipantStatus{IsParticipating: false, Role: domain.RoleNone}, nil
		}
		return domain.ParticipantStatus{IsParticipating: true, Role: reg.Role}, nil
	})
	if err != nil {
		return domain.ParticipantStatus{Role: domain.RoleNone}, err
	}

	return res.Value.(domain.ParticipantStatus), nil
}
