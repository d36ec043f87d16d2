package domain

import "errors"

// Error taxonomy for the resolution core. Gateway and usecase wrap these
// with fmt.Errorf("...: %w", ...) so callers can classify via errors.Is.
var (
	// ErrAccountNotFound means the queried account does not exist.
	// Terminal: no session is created.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRateLimited means the API quota is exhausted. Distinguished from
	// ErrUpstreamUnavailable so callers can show quota-specific guidance.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstreamUnavailable covers timeouts and transient transport
	// failures. Terminal for the current stream call; resolved state is
	// kept, so a fresh stream over the same session resumes cheaply.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrProtocolViolation signals a break of the paging contract
	// (out-of-order timestamps, a search window that stops shrinking).
	ErrProtocolViolation = errors.New("paging contract violation")
)
