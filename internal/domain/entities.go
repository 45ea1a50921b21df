package domain

import (
	"time"
)

// AuctionWindow is one occurrence of the recurring auction event. Rows are
// created ahead of time by the provisioner and never deleted; a closed window
// is superseded by the next occurrence and kept as the "previous auctions"
// read model.
type AuctionWindow struct {
	ID           string
	StartTime    time.Time
	Status       WindowStatus
	MaxBuyers    *int // nil = unbounded
	MaxSellers   *int // nil = unbounded
	BuyersCount  int
	SellersCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type WindowStatus int

const (
	WindowScheduled WindowStatus = iota
	WindowOpen
	WindowClosed
)

func (s WindowStatus) String() string {
	switch s {
	case WindowScheduled:
		return "scheduled"
	case WindowOpen:
		return "open"
	case WindowClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleNone   Role = "none"
)

// Valid reports whether the role is one a participant may register as.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Registration is a participant's claimed seat for a specific window.
// Immutable once created; at most one per (auction, participant).
type Registration struct {
	ID            string    `json:"id"`
	AuctionID     string    `json:"auction_id"`
	ParticipantID string    `json:"participant_id"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

// WindowState is the derived view of the weekly schedule at one instant.
// Never persisted; recomputed on every tick.
type WindowState struct {
	IsOpen           bool      `json:"is_open"`
	RegistrationOpen bool      `json:"registration_open"`
	Days             int       `json:"days"`
	Hours            int       `json:"hours"`
	Minutes          int       `json:"minutes"`
	Seconds          int       `json:"seconds"`
	Target           time.Time `json:"target"`
}

// ParticipantStatus is the participant-facing view combining ledger and
// window state.
type ParticipantStatus struct {
	IsParticipating bool `json:"is_participating"`
	Role            Role `json:"role"`
}

type Product struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	AuctionID  string    `json:"auction_id,omitempty"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Governorate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
