package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for common business logic failures.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrInvalidMetadata  = errors.New("invalid nft metadata")
	ErrUnknownSponsor   = errors.New("unknown sponsor")
	ErrUnknownReward    = errors.New("unknown reward")
	ErrUnknownEventType = errors.New("unknown sponsor event type")
)
