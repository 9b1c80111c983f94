package inbox

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vaultsandbox/gateway-sub005/internal/address"
)

const (
	// MinTTL is the hard lower bound on inbox lifetime.
	MinTTL = 60 * time.Second

	// maxAddressAttempts bounds the collision retry loop in Create.
	maxAddressAttempts = 10
)

// RegistryConfig carries the TTL bounds for inbox creation.
type RegistryConfig struct {
	// DefaultTTL applies when a create request carries no TTL.
	DefaultTTL time.Duration
	// MaxTTL is the upper bound on requested TTLs.
	MaxTTL time.Duration
}

// Registry owns the inbox table, keyed both by address and by identity
// hash. All lookups are case-insensitive; keys are stored lowercase.
type Registry struct {
	mu        sync.RWMutex
	byAddress map[string]*Inbox
	byHash    map[string]*Inbox

	resolver  *address.Resolver
	cfg       RegistryConfig
	listeners []Listener
	logger    *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger is replaced with a
// no-op logger.
func NewRegistry(resolver *address.Resolver, cfg RegistryConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		byAddress: make(map[string]*Inbox),
		byHash:    make(map[string]*Inbox),
		resolver:  resolver,
		cfg:       cfg,
		logger:    logger,
	}
}

// Subscribe registers a deletion listener. Registration happens at
// composition time, before the registry serves traffic; it is not
// synchronized against concurrent mutation.
func (r *Registry) Subscribe(l Listener) {
	r.listeners = append(r.listeners, l)
}

func (r *Registry) notify(ev Event) {
	for _, l := range r.listeners {
		l(ev)
	}
}

// CreateParams are the inputs for inbox creation.
type CreateParams struct {
	// EmailAddress is the raw client input: full address, bare domain, or
	// empty for a fully generated address.
	EmailAddress string
	// ClientKemPk is the decoded client KEM public key; nil creates a
	// plain inbox.
	ClientKemPk []byte
	// TTL is the requested lifetime; zero selects the configured default.
	TTL time.Duration
}

// Create resolves an address, derives the identity hash, and registers a
// new inbox. The whole existence-check-then-insert sequence runs under
// the registry lock: concurrent creates for the same identity hash can
// never both succeed.
//
// Address collisions are retried up to maxAddressAttempts times with a
// fresh random local part on the same domain; exhausting the budget
// returns ErrAddressExhausted. An identity-hash collision returns
// ErrHashConflict immediately and is never retried.
func (r *Registry) Create(p CreateParams) (*Inbox, error) {
	ttl := p.TTL
	if ttl == 0 {
		ttl = r.cfg.DefaultTTL
	}
	if ttl < MinTTL || ttl > r.cfg.MaxTTL {
		return nil, fmt.Errorf("%w: %s not in [%s, %s]", ErrInvalidTTL, ttl, MinTTL, r.cfg.MaxTTL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	addr, err := r.resolver.Resolve(p.EmailAddress)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if _, taken := r.byAddress[addr]; !taken {
			break
		}
		if attempt+1 >= maxAddressAttempts {
			r.logger.Error("address allocation exhausted",
				zap.Int("attempts", maxAddressAttempts))
			return nil, ErrAddressExhausted
		}
		domain := addr[strings.LastIndex(addr, "@")+1:]
		if addr, err = r.resolver.RandomAddress(domain); err != nil {
			return nil, err
		}
	}

	hash := IdentityHash(p.ClientKemPk, addr)
	if _, used := r.byHash[hash]; used {
		return nil, fmt.Errorf("%w: %s", ErrHashConflict, hash)
	}

	in := newInbox(addr, hash, p.ClientKemPk, time.Now(), ttl)
	r.byAddress[addr] = in
	r.byHash[hash] = in

	r.logger.Info("inbox created",
		zap.String("address", addr),
		zap.String("hash", hash),
		zap.Bool("encrypted", in.Encrypted),
		zap.Time("expires_at", in.ExpiresAt))

	return in, nil
}

// FindByAddress looks up an inbox by address, case-insensitively.
func (r *Registry) FindByAddress(addr string) (*Inbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.byAddress[strings.ToLower(addr)]
	return in, ok
}

// FindByHash looks up an inbox by identity hash.
func (r *Registry) FindByHash(hash string) (*Inbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.byHash[hash]
	return in, ok
}

// Delete removes an inbox by address. Deleting an absent inbox is
// success, mirroring at-most-once DELETE semantics; the return value
// reports whether anything was removed. Listeners are notified once per
// removed inbox.
func (r *Registry) Delete(addr string) bool {
	addr = strings.ToLower(addr)

	r.mu.Lock()
	in, ok := r.byAddress[addr]
	if ok {
		delete(r.byAddress, addr)
		delete(r.byHash, in.InboxHash)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	r.logger.Info("inbox deleted", zap.String("address", addr))
	r.notify(Event{Type: EventInboxDeleted, EmailAddress: in.EmailAddress, InboxHash: in.InboxHash})
	return true
}

// DeleteAll drops every inbox and returns the number removed. Listeners
// are notified per inbox, so dependent subsystems see cascading deletes
// rather than one bulk signal.
func (r *Registry) DeleteAll() int {
	r.mu.Lock()
	removed := make([]*Inbox, 0, len(r.byAddress))
	for _, in := range r.byAddress {
		removed = append(removed, in)
	}
	r.byAddress = make(map[string]*Inbox)
	r.byHash = make(map[string]*Inbox)
	r.mu.Unlock()

	for _, in := range removed {
		r.notify(Event{Type: EventInboxDeleted, EmailAddress: in.EmailAddress, InboxHash: in.InboxHash})
	}

	if len(removed) > 0 {
		r.logger.Info("all inboxes cleared", zap.Int("count", len(removed)))
	}
	return len(removed)
}

// Hashes returns the identity hashes of all live inboxes. Used by the
// transport layer for subscription filtering; no side effects.
func (r *Registry) Hashes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hashes := make([]string, 0, len(r.byHash))
	for h := range r.byHash {
		hashes = append(hashes, h)
	}
	return hashes
}

// Count returns the number of live inboxes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}

// Snapshot returns the current inboxes. The slice is a copy; the inboxes
// are live and guard their own message state.
func (r *Registry) Snapshot() []*Inbox {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Inbox, 0, len(r.byAddress))
	for _, in := range r.byAddress {
		out = append(out, in)
	}
	return out
}

// IdentityHash derives the stable external reference for an inbox:
// base64url(SHA-256(client key bytes)) for encrypted inboxes, or
// base64url(SHA-256("plain:" + address)) for plain ones. Calling it with
// neither input is a programmer error.
func IdentityHash(clientKemPk []byte, addr string) string {
	var sum [sha256.Size]byte
	switch {
	case len(clientKemPk) > 0:
		sum = sha256.Sum256(clientKemPk)
	case addr != "":
		sum = sha256.Sum256([]byte("plain:" + strings.ToLower(addr)))
	default:
		panic("inbox: identity hash requires a client key or an address")
	}
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
