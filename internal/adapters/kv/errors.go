package kv

import "errors"

// Sentinel errors returned by every Store implementation.
var (
	ErrNotFound   = errors.New("kv: key not found")
	ErrInvalidKey = errors.New("kv: invalid key")
)
