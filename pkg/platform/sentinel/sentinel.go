package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: optimistic concurrency check failed (stale version)
// - ErrExpired: token/cache entry has expired
// - ErrAlreadyUsed: resource (review request, one-shot token) already consumed
// - ErrInvalidState: entity in wrong lifecycle stage for requested operation
// - ErrUnavailable: service or resource temporarily unavailable
// - ErrTimeout: operation exceeded its deadline
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrTimeout      = errors.New("timeout")
)
