package inbox

import "errors"

var (
	// ErrInboxNotFound is returned when no inbox exists for an address or hash.
	ErrInboxNotFound = errors.New("inbox not found")

	// ErrEmailNotFound is returned when an inbox has no message with the
	// requested id.
	ErrEmailNotFound = errors.New("email not found")

	// ErrHashConflict is returned when a created inbox would reuse the
	// identity hash of a live inbox. This is a deliberate key-reuse
	// rejection, distinct from an address collision, and is never retried.
	ErrHashConflict = errors.New("inbox hash already in use")

	// ErrAddressExhausted is returned when the bounded address-generation
	// retry loop fails to find a free address. It signals resource
	// exhaustion, not bad input.
	ErrAddressExhausted = errors.New("could not allocate a free address")

	// ErrInvalidTTL is returned when a requested TTL is outside the
	// permitted range.
	ErrInvalidTTL = errors.New("invalid ttl")
)
