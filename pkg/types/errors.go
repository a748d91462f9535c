package types

import "errors"

// Model errors. Engine and loader errors wrap one of these with context;
// callers match them with errors.Is.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidTimestepInput = errors.New("invalid timestep input")
	ErrExhaustedErosion     = errors.New("erosion exceeds removable material above the bottom layer")
	ErrNegativeStock        = errors.New("stock would become negative")
)

// Store errors.
var (
	ErrCoreNotFound    = errors.New("core not found")
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
