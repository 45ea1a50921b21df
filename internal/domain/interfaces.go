package domain

import (
	"context"
)

// LedgerStore is the authoritative seat store. ClaimSeat must perform the
// capacity check and counter increment as one indivisible operation per
// (auction, role): concurrent claims for the last seat resolve so that at most
// max registrations ever exist.
type LedgerStore interface {
	// ClaimSeat registers the participant for the window. If the participant
	// already holds a seat, the existing registration is returned with
	// existed=true and no counter change. Errors: ErrAuctionNotFound,
	// ErrCapacityExceeded.
	ClaimSeat(ctx context.Context, auctionID, participantID string, role Role) (reg *Registration, existed bool, err error)

	GetWindow(ctx context.Context, auctionID string) (*AuctionWindow, error)
	GetRegistration(ctx context.Context, auctionID, participantID string) (*Registration, error)
}

// WindowRepository is the provisioner's write surface over windows.
type WindowRepository interface {
	CreateWindow(ctx context.Context, window *AuctionWindow) error
	GetWindow(ctx context.Context, auctionID string) (*AuctionWindow, error)
	ListWindows(ctx context.Context) ([]*AuctionWindow, error)
	UpdateWindowStatus(ctx context.Context, auctionID string, status WindowStatus) error
}

// CatalogRepository backs the cached read endpoints.
type CatalogRepository interface {
	GetAuctionProducts(ctx context.Context, auctionID string) ([]*Product, error)
	GetUserProducts(ctx context.Context, userID string) ([]*Product, error)
	GetUserAuctionProducts(ctx context.Context, auctionID, userID string) ([]*Product, error)
	GetCategories(ctx context.Context) ([]*Category, error)
	GetGovernorates(ctx context.Context) ([]*Governorate, error)
}

// InvalidationPublisher fans a cache tag clear out to every interested
// coordinator (in-process or across instances).
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context, tags ...string) error
}

// InvalidationHandler receives tags to clear.
type InvalidationHandler func(tag string)

type InvalidationSubscriber interface {
	SubscribeToInvalidations(ctx context.Context, handler InvalidationHandler) error
}

// LeaderElection gates work that must run on exactly one instance.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}
