package memory

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"auction-platform/internal/domain"
	"auction-platform/pkg/utils"
)

// LedgerStore keeps windows and registrations in process memory. A single
// mutex serializes every claim, which makes the capacity check and counter
// increment indivisible. Used by tests and the memory storage backend.
type LedgerStore struct {
	clock clockwork.Clock

	mu            sync.Mutex
	windows       map[string]*domain.AuctionWindow
	registrations map[string]map[string]*domain.Registration // auctionID -> participantID
}

func NewLedgerStore(clock clockwork.Clock) *LedgerStore {
	return &LedgerStore{
		clock:         clock,
		windows:       make(map[string]*domain.AuctionWindow),
		registrations: make(map[string]map[string]*domain.Registration),
	}
}

func (s *LedgerStore) ClaimSeat(ctx context.Context, auctionID, participantID string, role domain.Role) (*domain.Registration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[auctionID]
	if !ok {
		return nil, false, domain.ErrAuctionNotFound
	}

	if existing, ok := s.registrations[auctionID][participantID]; ok {
		return existing, true, nil
	}

	switch role {
	case domain.RoleBuyer:
		if window.MaxBuyers != nil && window.BuyersCount >= *window.MaxBuyers {
			return nil, false, domain.ErrCapacityExceeded
		}
		window.BuyersCount++
	case domain.RoleSeller:
		if window.MaxSellers != nil && window.SellersCount >= *window.MaxSellers {
			return nil, false, domain.ErrCapacityExceeded
		}
		window.SellersCount++
	default:
		return nil, false, domain.ErrInvalidRole
	}
	window.UpdatedAt = s.clock.Now()

	reg := &domain.Registration{
		ID:            utils.GenerateID("reg"),
		AuctionID:     auctionID,
		ParticipantID: participantID,
		Role:          role,
		CreatedAt:     s.clock.Now(),
	}
	if s.registrations[auctionID] == nil {
		s.registrations[auctionID] = make(map[string]*domain.Registration)
	}
	s.registrations[auctionID][participantID] = reg

	return reg, false, nil
}

func (s *LedgerStore) GetWindow(ctx context.Context, auctionID string) (*domain.AuctionWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	copied := *window
	return &copied, nil
}

func (s *LedgerStore) GetRegistration(ctx context.Context, auctionID, participantID string) (*domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reg, ok := s.registrations[auctionID][participantID]; ok {
		return reg, nil
	}
	return nil, nil
}

// CreateWindow inserts a window if absent; an existing row is left untouched
// so the provisioner sweep stays idempotent.
func (s *LedgerStore) CreateWindow(ctx context.Context, window *domain.AuctionWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.windows[window.ID]; ok {
		return nil
	}
	copied := *window
	s.windows[window.ID] = &copied
	return nil
}

func (s *LedgerStore) ListWindows(ctx context.Context) ([]*domain.AuctionWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	windows := make([]*domain.AuctionWindow, 0, len(s.windows))
	for _, w := range s.windows {
		copied := *w
		windows = append(windows, &copied)
	}
	return windows, nil
}

func (s *LedgerStore) UpdateWindowStatus(ctx context.Context, auctionID string, status domain.WindowStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[auctionID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	window.Status = status
	window.UpdatedAt = s.clock.Now()
	return nil
}
