package gateway

import (
	"time"

	"github.com/vaultsandbox/gateway-sub005/internal/crypto"
	"github.com/vaultsandbox/gateway-sub005/internal/inbox"
)

// CreateInboxRequest carries the client's inbox creation parameters.
type CreateInboxRequest struct {
	// ClientKemPk is the base64url ML-KEM-768 public key; empty requests
	// a plain inbox (subject to the encryption policy).
	ClientKemPk string
	// TTL is the requested lifetime; zero selects the server default.
	TTL time.Duration
	// EmailAddress is the optional requested address: a full address, a
	// bare domain, or empty for a fully generated one.
	EmailAddress string
}

// CreateInboxResult is returned from CreateInbox.
type CreateInboxResult struct {
	EmailAddress string    `json:"emailAddress"`
	ExpiresAt    time.Time `json:"expiresAt"`
	InboxHash    string    `json:"inboxHash"`
	ServerSigPk  string    `json:"serverSigPk"`
	Encrypted    bool      `json:"encrypted"`
}

// InboxInfo is a read-only snapshot of a live inbox.
type InboxInfo struct {
	EmailAddress string    `json:"emailAddress"`
	InboxHash    string    `json:"inboxHash"`
	Encrypted    bool      `json:"encrypted"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	EmailCount   int       `json:"emailCount"`
}

// SyncStatus lets clients cheaply detect changes: if their own hash over
// the ids they have seen matches EmailsHash, nothing is new.
type SyncStatus struct {
	EmailCount int    `json:"emailCount"`
	EmailsHash string `json:"emailsHash"`
}

// CreateInbox resolves an address and registers a new inbox.
//
// The client key, TTL, domain, and local part are validated before
// anything is allocated; reusing the key of a live inbox fails with
// ErrConflict, distinct from both validation failures and the
// ErrExhausted returned when no free address can be generated.
func (g *Gateway) CreateInbox(req CreateInboxRequest) (*CreateInboxResult, error) {
	var clientKey []byte
	if req.ClientKemPk != "" {
		if g.cfg.EncryptionPolicy == EncryptionPolicyNever {
			return nil, &ValidationError{Reason: "encryption is disabled on this server"}
		}
		var err error
		if clientKey, err = crypto.DecodeClientKey(req.ClientKemPk); err != nil {
			return nil, wrapError(err)
		}
	} else if g.cfg.EncryptionPolicy == EncryptionPolicyAlways {
		return nil, &ValidationError{Reason: "this server requires a client KEM public key"}
	}

	in, err := g.registry.Create(inbox.CreateParams{
		EmailAddress: req.EmailAddress,
		ClientKemPk:  clientKey,
		TTL:          req.TTL,
	})
	if err != nil {
		return nil, wrapError(err)
	}

	return &CreateInboxResult{
		EmailAddress: in.EmailAddress,
		ExpiresAt:    in.ExpiresAt,
		InboxHash:    in.InboxHash,
		ServerSigPk:  g.engine.ServerSigningKeyB64(),
		Encrypted:    in.Encrypted,
	}, nil
}

// GetInbox returns a snapshot of the inbox with the given address.
func (g *Gateway) GetInbox(emailAddress string) (*InboxInfo, error) {
	in, ok := g.registry.FindByAddress(emailAddress)
	if !ok {
		return nil, &NotFoundError{Resource: "inbox", Key: emailAddress}
	}
	return inboxInfo(in), nil
}

// GetInboxByHash returns a snapshot of the inbox with the given
// identity hash.
func (g *Gateway) GetInboxByHash(inboxHash string) (*InboxInfo, error) {
	in, ok := g.registry.FindByHash(inboxHash)
	if !ok {
		return nil, &NotFoundError{Resource: "inbox", Key: inboxHash}
	}
	return inboxInfo(in), nil
}

// DeleteInbox removes an inbox and everything in it. Idempotent:
// deleting an absent inbox is success.
func (g *Gateway) DeleteInbox(emailAddress string) {
	g.registry.Delete(emailAddress)
}

// DeleteAllInboxes drops every inbox and returns the number removed.
// Deletion listeners fire once per inbox.
func (g *Gateway) DeleteAllInboxes() int {
	return g.store.Clear()
}

// ListInboxHashes returns the identity hashes of all live inboxes, for
// transport-layer subscription filtering.
func (g *Gateway) ListInboxHashes() []string {
	return g.registry.Hashes()
}

// InboxCount returns the number of live inboxes.
func (g *Gateway) InboxCount() int {
	return g.registry.Count()
}

// GetSyncStatus returns the inbox's message count and synchronization hash.
func (g *Gateway) GetSyncStatus(emailAddress string) (*SyncStatus, error) {
	in, ok := g.registry.FindByAddress(emailAddress)
	if !ok {
		return nil, &NotFoundError{Resource: "inbox", Key: emailAddress}
	}
	return &SyncStatus{EmailCount: in.EmailCount(), EmailsHash: in.EmailsHash()}, nil
}

func inboxInfo(in *inbox.Inbox) *InboxInfo {
	return &InboxInfo{
		EmailAddress: in.EmailAddress,
		InboxHash:    in.InboxHash,
		Encrypted:    in.Encrypted,
		CreatedAt:    in.CreatedAt,
		ExpiresAt:    in.ExpiresAt,
		EmailCount:   in.EmailCount(),
	}
}
