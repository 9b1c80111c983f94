package inbox

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store mutates per-inbox message state. It shares the registry's
// ownership of the inboxes; there is no separate lifetime.
type Store struct {
	reg    *Registry
	logger *zap.Logger
}

// NewStore creates a store over the registry's inboxes.
func NewStore(reg *Registry, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{reg: reg, logger: logger}
}

// Add inserts a message into the inbox. Reusing an id overwrites the
// stored message in place; content is never deduplicated. The
// synchronization hash is recomputed on every call.
func (s *Store) Add(addr string, msg *StoredMessage) error {
	in, ok := s.reg.FindByAddress(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInboxNotFound, addr)
	}
	in.add(msg)
	return nil
}

// List returns the inbox's messages newest first.
func (s *Store) List(addr string) ([]*StoredMessage, error) {
	in, ok := s.reg.FindByAddress(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInboxNotFound, addr)
	}
	return in.list(), nil
}

// Get returns one message. A missing inbox and a missing message are
// reported distinctly, never silently ignored.
func (s *Store) Get(addr, id string) (*StoredMessage, error) {
	in, ok := s.reg.FindByAddress(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInboxNotFound, addr)
	}
	msg, ok := in.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmailNotFound, id)
	}
	return msg, nil
}

// MarkRead flags a message as read.
func (s *Store) MarkRead(addr, id string) error {
	in, ok := s.reg.FindByAddress(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInboxNotFound, addr)
	}
	if !in.markRead(id) {
		return fmt.Errorf("%w: %s", ErrEmailNotFound, id)
	}
	return nil
}

// Delete removes a message by explicit user action. Unlike inbox
// deletion this is not idempotent: deleting the same message twice
// surfaces ErrEmailNotFound the second time.
func (s *Store) Delete(addr, id string) error {
	in, ok := s.reg.FindByAddress(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInboxNotFound, addr)
	}
	if !in.remove(id) {
		return fmt.Errorf("%w: %s", ErrEmailNotFound, id)
	}
	s.reg.notify(Event{Type: EventEmailDeleted, EmailAddress: in.EmailAddress, InboxHash: in.InboxHash, EmailID: id})
	return nil
}

// Evict is the silent counterpart of Delete for background removal. It
// never fails: a batch collaborator must not abort because one entry
// raced away. A missing target is logged at warn level.
func (s *Store) Evict(addr, id string) {
	in, ok := s.reg.FindByAddress(addr)
	if !ok {
		s.logger.Warn("evict: inbox already gone", zap.String("address", addr))
		return
	}
	if !in.remove(id) {
		s.logger.Warn("evict: email already gone",
			zap.String("address", addr), zap.String("id", id))
		return
	}
	s.reg.notify(Event{Type: EventEmailEvicted, EmailAddress: in.EmailAddress, InboxHash: in.InboxHash, EmailID: id})
}

// EvictOlderThan silently evicts every message received before the
// cutoff and returns the number removed.
func (s *Store) EvictOlderThan(addr string, cutoff time.Time) int {
	in, ok := s.reg.FindByAddress(addr)
	if !ok {
		return 0
	}
	ids := in.olderThan(cutoff)
	for _, id := range ids {
		s.Evict(addr, id)
	}
	return len(ids)
}

// Clear drops every inbox together with its messages and returns the
// number of inboxes removed. Owners are notified per inbox before the
// bulk state is gone, so cascading deletes reach dependent subsystems.
func (s *Store) Clear() int {
	return s.reg.DeleteAll()
}
