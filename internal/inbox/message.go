package inbox

import (
	"time"

	"github.com/vaultsandbox/gateway-sub005/internal/crypto"
)

// Content is the storage variant of a message: either every field
// encrypted to the inbox owner's key, or plaintext bytes for plain
// inboxes. Exactly one variant applies per message, fixed at insertion;
// call sites must handle both.
type Content interface {
	isContent()
}

// EncryptedContent holds the three encrypted fields of a stored message.
type EncryptedContent struct {
	// Metadata is the encrypted envelope metadata (from/to/subject/receivedAt).
	Metadata *crypto.EncryptedPayload
	// Parsed is the encrypted parsed body (text/html/headers/attachments).
	Parsed *crypto.EncryptedPayload
	// Raw is the encrypted raw message source.
	Raw *crypto.EncryptedPayload
}

func (*EncryptedContent) isContent() {}

// PlainContent holds the same three fields unencrypted, as opaque bytes.
// The caller decides their encoding.
type PlainContent struct {
	Metadata []byte
	Parsed   []byte
	Raw      []byte
}

func (*PlainContent) isContent() {}

// StoredMessage is one message held by an inbox.
type StoredMessage struct {
	// ID is the caller-supplied unique message token.
	ID string
	// ReceivedAt is when the message was handed to the store.
	ReceivedAt time.Time
	// IsRead marks the message as read by the client.
	IsRead bool
	// Content is the encrypted or plain variant.
	Content Content
}
