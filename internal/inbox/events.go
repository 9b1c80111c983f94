package inbox

// EventType classifies a deletion notification.
type EventType string

const (
	// EventInboxDeleted fires when an inbox is removed, whether by
	// explicit delete, expiry sweep, or a clear-all.
	EventInboxDeleted EventType = "inbox_deleted"
	// EventEmailDeleted fires when a message is removed by explicit
	// user action.
	EventEmailDeleted EventType = "email_deleted"
	// EventEmailEvicted fires when a message is removed by a background
	// collaborator.
	EventEmailEvicted EventType = "email_evicted"
)

// Event is a deletion notification delivered synchronously to
// subscribers. Dependent subsystems (webhooks, memory accounting)
// subscribe at composition time instead of wiring callbacks into the
// registry after the fact.
type Event struct {
	Type         EventType
	EmailAddress string
	InboxHash    string
	// EmailID is set for message-level events only.
	EmailID string
}

// Listener receives deletion events. Listeners run synchronously on the
// mutating goroutine and must not block.
type Listener func(Event)
