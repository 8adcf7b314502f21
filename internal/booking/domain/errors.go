package domain

import "errors"

var (
	// ErrSlotNoLongerAvailable means another booking took the slot first.
	// Callers may offer the customer a different slot.
	ErrSlotNoLongerAvailable = errors.New("slot no longer available")

	// ErrSlotBlocked means the day or an hour range is blocked.
	ErrSlotBlocked = errors.New("slot is blocked")

	// ErrSlotUnavailable means the slot can never be booked as requested:
	// off the grid, past the lead-time cutoff or ending after closing.
	ErrSlotUnavailable = errors.New("slot unavailable")

	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("unknown booking status")

	// ErrVersionConflict means the booking changed since it was loaded.
	ErrVersionConflict = errors.New("booking was modified concurrently")

	ErrCustomerNameRequired = errors.New("customer name is required")
	ErrContactRequired      = errors.New("an email or phone is required")
	ErrInvalidEmail         = errors.New("invalid email address")

	// ErrDuplicateCode and ErrDuplicateIdempotencyKey are reported by
	// repositories so the writer can retry or replay.
	ErrDuplicateCode           = errors.New("booking code already exists")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

	// ErrIdempotencyKeyReused means the key belongs to a booking for a
	// different service, date or start.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused for a different booking")

	ErrCreditNotAllowed = errors.New("credit requires a cancelled booking")
)

// IsConflict reports whether err is worth retrying with a different slot.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotNoLongerAvailable)
}
