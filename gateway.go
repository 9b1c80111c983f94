package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vaultsandbox/gateway-sub005/internal/address"
	"github.com/vaultsandbox/gateway-sub005/internal/crypto"
	"github.com/vaultsandbox/gateway-sub005/internal/inbox"
	"github.com/vaultsandbox/gateway-sub005/internal/reaper"
	"github.com/vaultsandbox/gateway-sub005/internal/wire"
)

// Event is a deletion notification; see OnDeletion.
type Event = inbox.Event

// EventType classifies deletion notifications.
type EventType = inbox.EventType

// Deletion event types.
const (
	EventInboxDeleted = inbox.EventInboxDeleted
	EventEmailDeleted = inbox.EventEmailDeleted
	EventEmailEvicted = inbox.EventEmailEvicted
)

// Gateway composes the core: crypto engine, address resolver, inbox
// registry and message store. All state is in memory.
type Gateway struct {
	cfg      Config
	engine   *crypto.Engine
	resolver *address.Resolver
	registry *inbox.Registry
	store    *inbox.Store
	reaper   *reaper.Reaper
	logger   *zap.Logger
}

// New builds a gateway from cfg. The signing keypair is loaded from the
// configured key files, or generated ephemerally when none are set; a
// key file of the wrong length is fatal. A nil logger is replaced with a
// no-op logger.
func New(cfg Config, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	if cfg.MaxTTL < cfg.DefaultTTL {
		return nil, fmt.Errorf("max ttl %s below default ttl %s", cfg.MaxTTL, cfg.DefaultTTL)
	}

	var (
		signer *crypto.SigningKeypair
		err    error
	)
	if cfg.SigningSecretKeyFile != "" {
		signer, err = crypto.LoadSigningKeypair(cfg.SigningSecretKeyFile, cfg.SigningPublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load signing keypair: %w", err)
		}
		logger.Info("signing keypair loaded", zap.String("file", cfg.SigningSecretKeyFile))
	} else {
		signer, err = crypto.GenerateSigningKeypair()
		if err != nil {
			return nil, err
		}
		logger.Warn("using ephemeral signing keypair; payloads will not verify across restarts")
	}

	resolver, err := address.NewResolver(cfg.AllowedDomains, cfg.LocalPartBytes)
	if err != nil {
		return nil, err
	}

	registry := inbox.NewRegistry(resolver, inbox.RegistryConfig{
		DefaultTTL: cfg.DefaultTTL,
		MaxTTL:     cfg.MaxTTL,
	}, logger.Named("registry"))
	store := inbox.NewStore(registry, logger.Named("store"))

	g := &Gateway{
		cfg:      cfg,
		engine:   crypto.NewEngine(signer, logger.Named("crypto")),
		resolver: resolver,
		registry: registry,
		store:    store,
		logger:   logger,
	}
	g.reaper = reaper.New(registry, store, reaper.Config{
		Interval:    cfg.SweepInterval,
		MaxEmailAge: cfg.MaxEmailAge,
	}, logger.Named("reaper"))

	return g, nil
}

// ServerInfo describes the server's protocol parameters for clients.
type ServerInfo struct {
	ServerSigPk      string              `json:"serverSigPk"`
	Algs             wire.AlgorithmSuite `json:"algs"`
	Context          string              `json:"context"`
	MaxTTL           time.Duration       `json:"maxTtl"`
	DefaultTTL       time.Duration       `json:"defaultTtl"`
	AllowedDomains   []string            `json:"allowedDomains"`
	EncryptionPolicy EncryptionPolicy    `json:"encryptionPolicy"`
}

// ServerInfo returns the protocol parameters, including the server
// signing public key — the only key material the core ever exposes.
func (g *Gateway) ServerInfo() ServerInfo {
	return ServerInfo{
		ServerSigPk:      g.engine.ServerSigningKeyB64(),
		Algs:             crypto.AlgorithmSuite,
		Context:          crypto.HKDFContext,
		MaxTTL:           g.cfg.MaxTTL,
		DefaultTTL:       g.cfg.DefaultTTL,
		AllowedDomains:   g.resolver.Domains(),
		EncryptionPolicy: g.cfg.EncryptionPolicy,
	}
}

// ServerSigningKey returns the raw server signing public key.
func (g *Gateway) ServerSigningKey() []byte {
	return g.engine.ServerSigningKey()
}

// OnDeletion registers a listener for inbox and email deletion events.
// Listeners are invoked synchronously on the mutating goroutine; wire
// them up at composition time, before the gateway serves traffic.
func (g *Gateway) OnDeletion(l func(Event)) {
	g.registry.Subscribe(inbox.Listener(l))
}

// Run drives the background reaper until ctx is cancelled. The gateway
// is fully usable without it; expiry then simply never happens.
func (g *Gateway) Run(ctx context.Context) {
	g.reaper.Run(ctx)
}

// Sweep runs one reaper pass immediately and returns the number of
// expired inboxes removed.
func (g *Gateway) Sweep() int {
	return g.reaper.Sweep(time.Now())
}
