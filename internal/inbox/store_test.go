package inbox

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*Store, *Inbox) {
	t.Helper()
	reg := newTestRegistry(t)
	in, err := reg.Create(CreateParams{EmailAddress: "store@allowed.test"})
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(reg, nil), in
}

func plainMessage(id string, at time.Time) *StoredMessage {
	return &StoredMessage{
		ID:         id,
		ReceivedAt: at,
		Content: &PlainContent{
			Metadata: []byte("meta-" + id),
			Parsed:   []byte("body-" + id),
			Raw:      []byte("raw-" + id),
		},
	}
}

func TestAddAndListNewestFirst(t *testing.T) {
	store, in := newTestStore(t)

	base := time.Now()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("msg-%d", i)
		if err := store.Add(in.EmailAddress, plainMessage(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := store.List(in.EmailAddress)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("List() returned %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"msg-2", "msg-1", "msg-0"} {
		if msgs[i].ID != want {
			t.Errorf("List()[%d].ID = %q, want %q", i, msgs[i].ID, want)
		}
	}
	if msgs[0].IsRead {
		t.Error("fresh message IsRead = true")
	}
}

func TestAddToMissingInbox(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.Add("ghost@allowed.test", plainMessage("m", time.Now()))
	if !errors.Is(err, ErrInboxNotFound) {
		t.Errorf("error = %v, want ErrInboxNotFound", err)
	}
}

func TestAddOverwritesSameID(t *testing.T) {
	store, in := newTestStore(t)

	if err := store.Add(in.EmailAddress, plainMessage("dup", time.Now())); err != nil {
		t.Fatal(err)
	}
	hashBefore := in.EmailsHash()

	replacement := plainMessage("dup", time.Now())
	replacement.Content = &PlainContent{Metadata: []byte("replaced")}
	if err := store.Add(in.EmailAddress, replacement); err != nil {
		t.Fatal(err)
	}

	if in.EmailCount() != 1 {
		t.Errorf("EmailCount() = %d after overwrite, want 1", in.EmailCount())
	}
	if in.EmailsHash() != hashBefore {
		t.Error("hash changed although the id set did not")
	}

	msg, err := store.Get(in.EmailAddress, "dup")
	if err != nil {
		t.Fatal(err)
	}
	pc, ok := msg.Content.(*PlainContent)
	if !ok {
		t.Fatalf("content variant = %T, want *PlainContent", msg.Content)
	}
	if string(pc.Metadata) != "replaced" {
		t.Error("overwrite kept the old content")
	}
}

func TestConcurrentAddListAndHash(t *testing.T) {
	store, in := newTestStore(t)

	const workers, perWorker = 8, 8
	base := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("msg-%d-%d", worker, i)
				if err := store.Add(in.EmailAddress, plainMessage(id, base)); err != nil {
					t.Errorf("Add(%s) error = %v", id, err)
					return
				}
				// readers race the writers on the same inbox
				if _, err := store.List(in.EmailAddress); err != nil {
					t.Errorf("List() error = %v", err)
				}
				in.EmailsHash()
				in.EmailCount()
			}
		}(w)
	}
	wg.Wait()

	if got := in.EmailCount(); got != workers*perWorker {
		t.Errorf("EmailCount() = %d, want %d", got, workers*perWorker)
	}

	ids := make([]string, 0, workers*perWorker)
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			ids = append(ids, fmt.Sprintf("msg-%d-%d", w, i))
		}
	}
	if got, want := in.EmailsHash(), computeEmailsHash(ids); got != want {
		t.Errorf("EmailsHash() = %q, want %q", got, want)
	}
}

func TestConcurrentMarkReadAndList(t *testing.T) {
	store, in := newTestStore(t)

	const n = 32
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("msg-%d", i)
		if err := store.Add(in.EmailAddress, plainMessage(ids[i], time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := store.MarkRead(in.EmailAddress, id); err != nil {
				t.Errorf("MarkRead(%s) error = %v", id, err)
			}
			// list snapshots must stay safe to read while flags flip
			msgs, err := store.List(in.EmailAddress)
			if err != nil {
				t.Errorf("List() error = %v", err)
				return
			}
			for _, m := range msgs {
				_ = m.IsRead
			}
		}(id)
	}
	wg.Wait()

	msgs, err := store.List(in.EmailAddress)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range msgs {
		if !m.IsRead {
			t.Errorf("message %s IsRead = false after MarkRead", m.ID)
		}
	}
}

func TestEmailsHashIndependentOfInsertionOrder(t *testing.T) {
	reg := newTestRegistry(t)
	store := NewStore(reg, nil)

	a, err := reg.Create(CreateParams{EmailAddress: "order-a@allowed.test"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.Create(CreateParams{EmailAddress: "order-b@allowed.test"})
	if err != nil {
		t.Fatal(err)
	}

	ids := []string{"x", "y", "z"}
	for _, id := range ids {
		if err := store.Add(a.EmailAddress, plainMessage(id, time.Now())); err != nil {
			t.Fatal(err)
		}
	}
	for i := len(ids) - 1; i >= 0; i-- {
		if err := store.Add(b.EmailAddress, plainMessage(ids[i], time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	if a.EmailsHash() != b.EmailsHash() {
		t.Error("identical id sets produced different hashes")
	}
}

func TestEmailsHashChangesOnMutation(t *testing.T) {
	store, in := newTestStore(t)

	empty := in.EmailsHash()
	if empty == "" {
		t.Fatal("empty inbox hash is empty string")
	}

	if err := store.Add(in.EmailAddress, plainMessage("m1", time.Now())); err != nil {
		t.Fatal(err)
	}
	afterAdd := in.EmailsHash()
	if afterAdd == empty {
		t.Error("hash unchanged after add")
	}

	if err := store.Delete(in.EmailAddress, "m1"); err != nil {
		t.Fatal(err)
	}
	if in.EmailsHash() != empty {
		t.Error("hash did not return to the empty-set value after delete")
	}
}

func TestGetDistinguishesMisses(t *testing.T) {
	store, in := newTestStore(t)

	if _, err := store.Get("ghost@allowed.test", "m"); !errors.Is(err, ErrInboxNotFound) {
		t.Errorf("missing inbox: error = %v, want ErrInboxNotFound", err)
	}
	if _, err := store.Get(in.EmailAddress, "m"); !errors.Is(err, ErrEmailNotFound) {
		t.Errorf("missing email: error = %v, want ErrEmailNotFound", err)
	}
}

func TestMarkRead(t *testing.T) {
	store, in := newTestStore(t)

	if err := store.Add(in.EmailAddress, plainMessage("m", time.Now())); err != nil {
		t.Fatal(err)
	}

	if err := store.MarkRead(in.EmailAddress, "m"); err != nil {
		t.Fatal(err)
	}
	msg, err := store.Get(in.EmailAddress, "m")
	if err != nil {
		t.Fatal(err)
	}
	if !msg.IsRead {
		t.Error("IsRead = false after MarkRead")
	}

	if err := store.MarkRead(in.EmailAddress, "ghost"); !errors.Is(err, ErrEmailNotFound) {
		t.Errorf("error = %v, want ErrEmailNotFound", err)
	}
}

func TestDeleteMessageIsNotIdempotent(t *testing.T) {
	store, in := newTestStore(t)

	if err := store.Add(in.EmailAddress, plainMessage("once", time.Now())); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(in.EmailAddress, "once"); err != nil {
		t.Fatalf("first delete error = %v", err)
	}
	if err := store.Delete(in.EmailAddress, "once"); !errors.Is(err, ErrEmailNotFound) {
		t.Errorf("second delete error = %v, want ErrEmailNotFound", err)
	}
}

func TestEvictNeverFails(t *testing.T) {
	store, in := newTestStore(t)

	// Missing inbox and missing message are both quiet no-ops.
	store.Evict("ghost@allowed.test", "m")
	store.Evict(in.EmailAddress, "m")

	if err := store.Add(in.EmailAddress, plainMessage("m", time.Now())); err != nil {
		t.Fatal(err)
	}
	store.Evict(in.EmailAddress, "m")
	if in.EmailCount() != 0 {
		t.Error("Evict did not remove the message")
	}
	// Racing a second evict of the same id stays silent.
	store.Evict(in.EmailAddress, "m")
}

func TestEvictOlderThan(t *testing.T) {
	store, in := newTestStore(t)

	now := time.Now()
	for i, age := range []time.Duration{3 * time.Hour, 2 * time.Hour, time.Minute} {
		id := fmt.Sprintf("m%d", i)
		if err := store.Add(in.EmailAddress, plainMessage(id, now.Add(-age))); err != nil {
			t.Fatal(err)
		}
	}

	if n := store.EvictOlderThan(in.EmailAddress, now.Add(-time.Hour)); n != 2 {
		t.Errorf("EvictOlderThan() = %d, want 2", n)
	}
	if in.EmailCount() != 1 {
		t.Errorf("EmailCount() = %d, want 1", in.EmailCount())
	}
}

func TestDeleteAndEvictEvents(t *testing.T) {
	reg := newTestRegistry(t)
	store := NewStore(reg, nil)

	in, err := reg.Create(CreateParams{EmailAddress: "events@allowed.test"})
	if err != nil {
		t.Fatal(err)
	}

	var events []Event
	reg.Subscribe(func(ev Event) { events = append(events, ev) })

	for _, id := range []string{"del", "evict"} {
		if err := store.Add(in.EmailAddress, plainMessage(id, time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.Delete(in.EmailAddress, "del"); err != nil {
		t.Fatal(err)
	}
	store.Evict(in.EmailAddress, "evict")

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventEmailDeleted || events[0].EmailID != "del" {
		t.Errorf("first event = %+v, want EventEmailDeleted for del", events[0])
	}
	if events[1].Type != EventEmailEvicted || events[1].EmailID != "evict" {
		t.Errorf("second event = %+v, want EventEmailEvicted for evict", events[1])
	}
}

func TestClearReturnsCountAndCascades(t *testing.T) {
	reg := newTestRegistry(t)
	store := NewStore(reg, nil)

	var perInbox int
	reg.Subscribe(func(ev Event) {
		if ev.Type == EventInboxDeleted {
			perInbox++
		}
	})

	for i := 0; i < 2; i++ {
		in, err := reg.Create(CreateParams{EmailAddress: fmt.Sprintf("clear-%d@allowed.test", i)})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Add(in.EmailAddress, plainMessage("m", time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	if n := store.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if perInbox != 2 {
		t.Errorf("got %d per-inbox notifications, want 2", perInbox)
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d after Clear", reg.Count())
	}
}
