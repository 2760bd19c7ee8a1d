package ridecache

import "errors"

// Sentinel errors for the ridecache domain.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrBadRequest       = errors.New("bad request")
	ErrUnknownKind      = errors.New("unknown kind")
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrMissingOwner     = errors.New("missing owning user")
)
