package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vaultsandbox/gateway-sub005/internal/address"
	"github.com/vaultsandbox/gateway-sub005/internal/crypto"
	"github.com/vaultsandbox/gateway-sub005/internal/inbox"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		in      error
		want    error
		notWant error
	}{
		{
			name:    "inbox miss",
			in:      fmt.Errorf("%w: a@b.test", inbox.ErrInboxNotFound),
			want:    ErrInboxNotFound,
			notWant: ErrEmailNotFound,
		},
		{
			name:    "email miss",
			in:      fmt.Errorf("%w: msg-1", inbox.ErrEmailNotFound),
			want:    ErrEmailNotFound,
			notWant: ErrInboxNotFound,
		},
		{
			name:    "hash conflict",
			in:      fmt.Errorf("%w: abc123", inbox.ErrHashConflict),
			want:    ErrConflict,
			notWant: ErrInvalidInput,
		},
		{
			name:    "address exhaustion",
			in:      inbox.ErrAddressExhausted,
			want:    ErrExhausted,
			notWant: ErrConflict,
		},
		{
			name:    "bad ttl",
			in:      inbox.ErrInvalidTTL,
			want:    ErrInvalidInput,
			notWant: ErrConflict,
		},
		{
			name:    "bad domain",
			in:      address.ErrDomainNotAllowed,
			want:    ErrInvalidInput,
			notWant: ErrNotFound,
		},
		{
			name:    "bad client key",
			in:      crypto.ErrInvalidClientKey,
			want:    ErrInvalidInput,
			notWant: ErrCryptoFailure,
		},
		{
			name:    "crypto failure",
			in:      fmt.Errorf("%w: gcm seal", crypto.ErrEncryptionFailed),
			want:    ErrCryptoFailure,
			notWant: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapError(tt.in)
			if !errors.Is(got, tt.want) {
				t.Errorf("wrapError(%v) = %v, want match for %v", tt.in, got, tt.want)
			}
			if errors.Is(got, tt.notWant) {
				t.Errorf("wrapError(%v) = %v, must not match %v", tt.in, got, tt.notWant)
			}
		})
	}

	if wrapError(nil) != nil {
		t.Error("wrapError(nil) != nil")
	}
}

func TestNotFoundErrorCarriesKey(t *testing.T) {
	err := wrapError(fmt.Errorf("%w: user@vaultsandbox.test", inbox.ErrInboxNotFound))

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error %v is not a *NotFoundError", err)
	}
	if nf.Key != "user@vaultsandbox.test" {
		t.Errorf("Key = %q, want the missing address", nf.Key)
	}
}

func TestConflictErrorCarriesHash(t *testing.T) {
	err := wrapError(fmt.Errorf("%w: deadbeef", inbox.ErrHashConflict))

	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("error %v is not a *ConflictError", err)
	}
	if ce.InboxHash != "deadbeef" {
		t.Errorf("InboxHash = %q, want deadbeef", ce.InboxHash)
	}
}

func TestUnmappedErrorPassesThrough(t *testing.T) {
	sentinel := errors.New("something else")
	if got := wrapError(sentinel); got != sentinel {
		t.Errorf("wrapError passed-through error = %v, want identity", got)
	}
}
