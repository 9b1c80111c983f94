package gateway

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaultsandbox/gateway-sub005/internal/inbox"
	"github.com/vaultsandbox/gateway-sub005/internal/wire"
)

// IncomingEmail is what the SMTP collaborator hands the core: plaintext
// bytes per field, already extracted from the wire message.
type IncomingEmail struct {
	// ID is the unique message token; empty generates one.
	ID string
	// Metadata is the envelope metadata (from/to/subject/receivedAt).
	Metadata []byte
	// Parsed is the parsed body (text/html/headers/attachments).
	Parsed []byte
	// Raw is the raw message source.
	Raw []byte
	// ReceivedAt defaults to now when zero.
	ReceivedAt time.Time
}

// EmailRecord is the wire view of a stored message as returned to the
// transport layer. For encrypted inboxes the Encrypted* fields are set;
// for plain inboxes the byte fields are.
type EmailRecord struct {
	ID                string        `json:"id"`
	ReceivedAt        time.Time     `json:"receivedAt"`
	IsRead            bool          `json:"isRead"`
	Encrypted         bool          `json:"encrypted"`
	EncryptedMetadata *wire.Payload `json:"encryptedMetadata,omitempty"`
	EncryptedParsed   *wire.Payload `json:"encryptedParsed,omitempty"`
	Metadata          []byte        `json:"metadata,omitempty"`
	Parsed            []byte        `json:"parsed,omitempty"`
}

// EmailSource is the wire view of a message's raw source.
type EmailSource struct {
	ID           string        `json:"id"`
	EncryptedRaw *wire.Payload `json:"encryptedRaw,omitempty"`
	Raw          []byte        `json:"raw,omitempty"`
}

// DeliverEmail stores an incoming email in the inbox. For encrypted
// inboxes every field is individually encrypted to the client's key with
// the inbox hash as AAD; plain inboxes store the bytes as handed in.
// Returns the stored message id. Reusing an id overwrites the previous
// message.
func (g *Gateway) DeliverEmail(emailAddress string, in IncomingEmail) (string, error) {
	box, ok := g.registry.FindByAddress(emailAddress)
	if !ok {
		return "", &NotFoundError{Resource: "inbox", Key: emailAddress}
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	receivedAt := in.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	content, err := g.buildContent(box, in)
	if err != nil {
		return "", err
	}

	msg := &inbox.StoredMessage{
		ID:         id,
		ReceivedAt: receivedAt,
		Content:    content,
	}
	if err := g.store.Add(box.EmailAddress, msg); err != nil {
		return "", wrapError(err)
	}

	g.logger.Debug("email stored",
		zap.String("address", box.EmailAddress),
		zap.String("id", id),
		zap.Bool("encrypted", box.Encrypted))

	return id, nil
}

func (g *Gateway) buildContent(box *inbox.Inbox, in IncomingEmail) (inbox.Content, error) {
	if !box.Encrypted {
		return &inbox.PlainContent{
			Metadata: in.Metadata,
			Parsed:   in.Parsed,
			Raw:      in.Raw,
		}, nil
	}

	// AAD binds each payload to this inbox.
	aad := []byte(box.InboxHash)

	metadata, err := g.engine.EncryptRaw(box.ClientKemPk, in.Metadata, aad)
	if err != nil {
		return nil, wrapError(err)
	}
	parsed, err := g.engine.EncryptRaw(box.ClientKemPk, in.Parsed, aad)
	if err != nil {
		return nil, wrapError(err)
	}
	raw, err := g.engine.EncryptRaw(box.ClientKemPk, in.Raw, aad)
	if err != nil {
		return nil, wrapError(err)
	}

	return &inbox.EncryptedContent{Metadata: metadata, Parsed: parsed, Raw: raw}, nil
}

// ListEmails returns the inbox's messages newest first, in wire form.
func (g *Gateway) ListEmails(emailAddress string) ([]*EmailRecord, error) {
	msgs, err := g.store.List(emailAddress)
	if err != nil {
		return nil, wrapError(err)
	}

	out := make([]*EmailRecord, len(msgs))
	for i, msg := range msgs {
		out[i] = emailRecord(msg)
	}
	return out, nil
}

// GetEmail returns one message in wire form. Missing inbox and missing
// email are reported distinctly.
func (g *Gateway) GetEmail(emailAddress, id string) (*EmailRecord, error) {
	msg, err := g.store.Get(emailAddress, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return emailRecord(msg), nil
}

// GetEmailSource returns the message's raw source in wire form.
func (g *Gateway) GetEmailSource(emailAddress, id string) (*EmailSource, error) {
	msg, err := g.store.Get(emailAddress, id)
	if err != nil {
		return nil, wrapError(err)
	}

	src := &EmailSource{ID: msg.ID}
	switch c := msg.Content.(type) {
	case *inbox.EncryptedContent:
		src.EncryptedRaw = c.Raw.ToWire()
	case *inbox.PlainContent:
		src.Raw = c.Raw
	default:
		panic("gateway: unknown stored message variant")
	}
	return src, nil
}

// MarkEmailRead flags a message as read.
func (g *Gateway) MarkEmailRead(emailAddress, id string) error {
	return wrapError(g.store.MarkRead(emailAddress, id))
}

// DeleteEmail removes a message by explicit user action. Not idempotent:
// a second delete of the same id fails with ErrEmailNotFound.
func (g *Gateway) DeleteEmail(emailAddress, id string) error {
	return wrapError(g.store.Delete(emailAddress, id))
}

// EvictEmail silently removes a message on behalf of a background
// collaborator. It never fails; a missing target is only logged.
func (g *Gateway) EvictEmail(emailAddress, id string) {
	g.store.Evict(emailAddress, id)
}

func emailRecord(msg *inbox.StoredMessage) *EmailRecord {
	rec := &EmailRecord{
		ID:         msg.ID,
		ReceivedAt: msg.ReceivedAt,
		IsRead:     msg.IsRead,
	}

	switch c := msg.Content.(type) {
	case *inbox.EncryptedContent:
		rec.Encrypted = true
		rec.EncryptedMetadata = c.Metadata.ToWire()
		rec.EncryptedParsed = c.Parsed.ToWire()
	case *inbox.PlainContent:
		rec.Metadata = c.Metadata
		rec.Parsed = c.Parsed
	default:
		panic("gateway: unknown stored message variant")
	}

	return rec
}
