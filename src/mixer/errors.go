package mixer

import "errors"

var (
	// ErrCapacityExceeded is returned when no free mixer slot is left.
	ErrCapacityExceeded = errors.New("no free mixer slot")
	// ErrNoSourceAvailable means the source table has no assignable source at all.
	ErrNoSourceAvailable = errors.New("no source available")
	ErrInvalidIndex      = errors.New("invalid mix index")
	ErrInvalidChannel    = errors.New("invalid channel")
	ErrOutOfOrder        = errors.New("channel out of order")
	ErrEmptySlot         = errors.New("empty mix slot")
	// ErrInvalidSource covers unknown source ids and sources the policy rejects.
	ErrInvalidSource = errors.New("invalid source")
)
