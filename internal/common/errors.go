// Package common defines shared constants and sentinel errors used across
// the sgtrakt client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Connectivity.
	ErrOffline = errors.New("offline")

	// Authorization errors reported by trakt or by the local credential store.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAccountLocked = errors.New("account locked")
	ErrAuth          = errors.New("authorization failed")

	// Request outcome errors.
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrAPI              = errors.New("api error")
	ErrCheckInConflict  = errors.New("check-in already in progress")

	// OAuth callback errors.
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrMissingCode   = errors.New("authorization code missing")

	// Provider returned a 2xx response without a required field.
	ErrMalformedResponse = errors.New("malformed response")

	// Local persistence failures.
	ErrStorage = errors.New("storage error")
)
