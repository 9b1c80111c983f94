package inbox

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
	"sync"
	"time"
)

// Inbox is one live mailbox. Identity fields are fixed at creation; only
// the message set, its hash, and read flags mutate afterwards, always
// under mu.
type Inbox struct {
	// EmailAddress is the normalized (lowercase) address, unique per registry.
	EmailAddress string
	// ClientKemPk is the raw client KEM public key; nil for plain inboxes.
	ClientKemPk []byte
	// InboxHash is the stable external reference for this inbox.
	InboxHash string
	// Encrypted reports whether stored messages are encrypted to the client key.
	Encrypted bool

	CreatedAt time.Time
	// ExpiresAt is advisory; expiry is enforced by the reaper, not inline.
	ExpiresAt time.Time

	mu         sync.Mutex
	messages   map[string]*StoredMessage
	order      []string // insertion order, oldest first
	emailsHash string
}

func newInbox(address, hash string, clientKemPk []byte, now time.Time, ttl time.Duration) *Inbox {
	return &Inbox{
		EmailAddress: address,
		ClientKemPk:  clientKemPk,
		InboxHash:    hash,
		Encrypted:    clientKemPk != nil,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		messages:     make(map[string]*StoredMessage),
		emailsHash:   computeEmailsHash(nil),
	}
}

// IsExpired reports whether the inbox TTL has elapsed. This is a
// read-time staleness signal only; the reaper performs actual removal.
func (in *Inbox) IsExpired(now time.Time) bool {
	return now.After(in.ExpiresAt)
}

// EmailsHash returns the current synchronization hash of the message set.
func (in *Inbox) EmailsHash() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.emailsHash
}

// EmailCount returns the number of stored messages.
func (in *Inbox) EmailCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.messages)
}

// add inserts a message by id, overwriting any message with the same id
// in place, and recomputes the synchronization hash.
func (in *Inbox) add(msg *StoredMessage) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if _, exists := in.messages[msg.ID]; !exists {
		in.order = append(in.order, msg.ID)
	}
	in.messages[msg.ID] = msg
	in.recomputeHashLocked()
}

// list returns shallow copies of the messages, newest first. Copies keep
// readers independent of later read-flag mutation; content is immutable
// after insertion.
func (in *Inbox) list() []*StoredMessage {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]*StoredMessage, 0, len(in.order))
	for i := len(in.order) - 1; i >= 0; i-- {
		msg := *in.messages[in.order[i]]
		out = append(out, &msg)
	}
	return out
}

func (in *Inbox) get(id string) (*StoredMessage, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	stored, ok := in.messages[id]
	if !ok {
		return nil, false
	}
	msg := *stored
	return &msg, true
}

func (in *Inbox) markRead(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	msg, ok := in.messages[id]
	if !ok {
		return false
	}
	msg.IsRead = true
	return true
}

// remove deletes a message by id and recomputes the synchronization
// hash. Returns false if the id is absent.
func (in *Inbox) remove(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	if _, ok := in.messages[id]; !ok {
		return false
	}
	delete(in.messages, id)
	for i, mid := range in.order {
		if mid == id {
			in.order = append(in.order[:i], in.order[i+1:]...)
			break
		}
	}
	in.recomputeHashLocked()
	return true
}

// olderThan returns ids of messages received before the cutoff.
func (in *Inbox) olderThan(cutoff time.Time) []string {
	in.mu.Lock()
	defer in.mu.Unlock()

	var ids []string
	for _, id := range in.order {
		if in.messages[id].ReceivedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (in *Inbox) recomputeHashLocked() {
	ids := make([]string, 0, len(in.messages))
	for id := range in.messages {
		ids = append(ids, id)
	}
	in.emailsHash = computeEmailsHash(ids)
}

// computeEmailsHash hashes the message id set: sort ids alphabetically,
// join with comma, SHA-256, base64url without padding. The hash depends
// only on the id set, never on insertion order; the empty set hashes the
// empty string. Clients compute the same value for cheap sync checks.
func computeEmailsHash(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	hash := sha256.Sum256([]byte(strings.Join(sorted, ",")))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
