package models

import "errors"

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidMatch     = errors.New("invalid match record")
	ErrUnresolvedPlayer = errors.New("player identity could not be resolved")
	ErrCacheUnavailable = errors.New("matchup cache backend unavailable")
	ErrInvalidMonth     = errors.New("tournament month must be between 1 and 12")
)
