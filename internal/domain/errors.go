package domain

import "errors"

var (
	// ErrAuctionNotFound means no window exists for the requested id.
	ErrAuctionNotFound = errors.New("auction window not found")

	// ErrCapacityExceeded means the role's seats are all taken.
	ErrCapacityExceeded = errors.New("role capacity exceeded")

	// ErrRegistrationClosed means the window is currently open and not
	// accepting registrations.
	ErrRegistrationClosed = errors.New("registration closed")

	// ErrAlreadyRegistered is returned by stores when the participant holds a
	// seat; the ledger resolves it to the existing registration.
	ErrAlreadyRegistered = errors.New("participant already registered")

	// ErrInvalidRole means the requested role is not buyer or seller.
	ErrInvalidRole = errors.New("invalid role")

	// ErrFetchFailed wraps an underlying fetch error the cache could not
	// absorb with a stale entry.
	ErrFetchFailed = errors.New("fetch failed")
)
