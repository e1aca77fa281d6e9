package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrInvalidInput indicates the request is invalid. This is the only
	// error class a caller should ever observe; everything else degrades
	// to a smaller-but-valid result set.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstreamUnavailable indicates a provider or backend could not be
	// reached. Recovered locally via fallback or empty-result degradation.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrServiceUnavailable indicates a model service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
