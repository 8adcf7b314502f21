package domain

import "errors"

var (
	ErrAlreadyBlocked = errors.New("day is already blocked")
	ErrNotFound       = errors.New("block not found")
	ErrInvalidRange   = errors.New("blocked range must start before it ends and stay within 00:00-24:00")
	ErrOverlap        = errors.New("blocked range overlaps an existing range")
)
