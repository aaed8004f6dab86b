package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidSample = errors.New("invalid step sample")
	ErrBackpressure  = errors.New("sample queue is full")
)
