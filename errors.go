package gateway

import (
	"errors"
	"fmt"

	"github.com/vaultsandbox/gateway-sub005/internal/address"
	"github.com/vaultsandbox/gateway-sub005/internal/crypto"
	"github.com/vaultsandbox/gateway-sub005/internal/inbox"
)

// Sentinel errors for errors.Is() checks. The five kinds mirror the
// protocol's failure classes; the narrower sentinels let callers
// distinguish inbox-level from email-level misses.
var (
	// ErrInvalidInput covers malformed client keys, bad TTLs, and
	// disallowed domains or local parts. Never retried internally.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a create would reuse the identity hash
	// of a live inbox ("key already used", as opposed to "bad input").
	ErrConflict = errors.New("inbox key already in use")

	// ErrNotFound covers missing inboxes and missing emails.
	ErrNotFound = errors.New("not found")

	// ErrInboxNotFound is returned when an inbox does not exist.
	ErrInboxNotFound = errors.New("inbox not found")

	// ErrEmailNotFound is returned when an email does not exist.
	ErrEmailNotFound = errors.New("email not found")

	// ErrExhausted is returned when the address-generation retry budget
	// is exceeded. Fatal for that request; the core never retries it.
	ErrExhausted = errors.New("address generation exhausted")

	// ErrCryptoFailure is the opaque error for encryption failures not
	// attributable to client input. Detail is logged server-side only.
	ErrCryptoFailure = errors.New("encryption failed")
)

// ValidationError reports rejected input with a human-readable reason.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NotFoundError reports a missing inbox or email.
type NotFoundError struct {
	Resource string // "inbox" or "email"
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// Is implements errors.Is for sentinel error matching.
func (e *NotFoundError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return true
	case ErrInboxNotFound:
		return e.Resource == "inbox"
	case ErrEmailNotFound:
		return e.Resource == "email"
	}
	return false
}

// ConflictError reports an identity-hash collision at creation.
type ConflictError struct {
	InboxHash string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("inbox key already in use: %s", e.InboxHash)
}

// Is implements errors.Is for sentinel error matching.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// wrapError maps internal errors onto the public error surface.
func wrapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, inbox.ErrInboxNotFound):
		return &NotFoundError{Resource: "inbox", Key: trailer(err)}
	case errors.Is(err, inbox.ErrEmailNotFound):
		return &NotFoundError{Resource: "email", Key: trailer(err)}
	case errors.Is(err, inbox.ErrHashConflict):
		return &ConflictError{InboxHash: trailer(err)}
	case errors.Is(err, inbox.ErrAddressExhausted):
		return ErrExhausted
	case errors.Is(err, inbox.ErrInvalidTTL),
		errors.Is(err, address.ErrDomainNotAllowed),
		errors.Is(err, address.ErrInvalidLocalPart),
		errors.Is(err, crypto.ErrInvalidClientKey):
		return &ValidationError{Reason: err.Error(), Err: err}
	case errors.Is(err, crypto.ErrEncryptionFailed):
		return ErrCryptoFailure
	}
	return err
}

// trailer extracts the detail after the last ": " of an error message,
// e.g. the address of a not-found inbox.
func trailer(err error) string {
	msg := err.Error()
	for i := len(msg) - 2; i >= 0; i-- {
		if msg[i] == ':' && msg[i+1] == ' ' {
			return msg[i+2:]
		}
	}
	return msg
}
