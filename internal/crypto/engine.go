package crypto

import (
	"crypto/rand"
	"fmt"
	"regexp"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"go.uber.org/zap"

	"github.com/vaultsandbox/gateway-sub005/internal/wire"
)

// base64urlPattern matches the base64url charset with optional '=' padding.
var base64urlPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+={0,2}$`)

// Engine performs hybrid encryption for client KEM public keys and signs
// every payload with the server's keypair. Encrypt is stateless apart
// from reading the fixed keypair and may run fully in parallel.
type Engine struct {
	signer *SigningKeypair
	logger *zap.Logger
}

// NewEngine creates an engine around the server signing keypair.
// A nil logger is replaced with a no-op logger.
func NewEngine(signer *SigningKeypair, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{signer: signer, logger: logger}
}

// ServerSigningKey returns the raw server signing public key.
func (e *Engine) ServerSigningKey() []byte {
	return e.signer.PublicKey
}

// ServerSigningKeyB64 returns the base64url form of the server signing
// public key, the only key material ever exposed to clients.
func (e *Engine) ServerSigningKeyB64() string {
	return e.signer.PublicKeyB64
}

// DecodeClientKey validates and decodes a client-supplied ML-KEM-768
// public key. The key must be non-empty, base64url (optionally padded),
// and decode to exactly MLKEMPublicKeySize bytes. Validation happens
// here, before any primitive sees the input; malformed keys must never
// reach the encapsulation code.
func DecodeClientKey(clientKemPk string) ([]byte, error) {
	if clientKemPk == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidClientKey)
	}
	if !base64urlPattern.MatchString(clientKemPk) {
		return nil, fmt.Errorf("%w: not base64url", ErrInvalidClientKey)
	}

	decoded, err := wire.DecodeBase64URL(clientKemPk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClientKey, err)
	}
	if len(decoded) != MLKEMPublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidClientKey, len(decoded), MLKEMPublicKeySize)
	}

	return decoded, nil
}

// Encrypt encrypts plaintext to the client's KEM public key and signs
// the resulting payload.
//
// Client key validation errors are reported distinctly (and logged at
// warn level); every other failure is coalesced into ErrEncryptionFailed
// so that primitive-level detail never leaks to callers.
func (e *Engine) Encrypt(clientKemPk string, plaintext, aad []byte) (*EncryptedPayload, error) {
	clientKey, err := DecodeClientKey(clientKemPk)
	if err != nil {
		e.logger.Warn("rejected client key", zap.Error(err))
		return nil, err
	}

	payload, err := e.encrypt(clientKey, plaintext, aad)
	if err != nil {
		e.logger.Error("payload encryption failed", zap.Error(err))
		return nil, ErrEncryptionFailed
	}

	return payload, nil
}

// EncryptRaw is Encrypt for an already-validated raw client key.
func (e *Engine) EncryptRaw(clientKey, plaintext, aad []byte) (*EncryptedPayload, error) {
	if len(clientKey) != MLKEMPublicKeySize {
		e.logger.Warn("rejected client key",
			zap.Int("size", len(clientKey)), zap.Int("want", MLKEMPublicKeySize))
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidClientKey, len(clientKey), MLKEMPublicKeySize)
	}

	payload, err := e.encrypt(clientKey, plaintext, aad)
	if err != nil {
		e.logger.Error("payload encryption failed", zap.Error(err))
		return nil, ErrEncryptionFailed
	}

	return payload, nil
}

func (e *Engine) encrypt(clientKey, plaintext, aad []byte) (*EncryptedPayload, error) {
	if aad == nil {
		aad = []byte{}
	}

	// 1. KEM encapsulation against the client key
	var pubKey mlkem768.PublicKey
	pubKey.Unpack(clientKey)

	ctKem := make([]byte, MLKEMCiphertextSize)
	sharedSecret := make([]byte, MLKEMSharedKeySize)
	pubKey.EncapsulateTo(ctKem, sharedSecret, nil)

	// 2. Key derivation (HKDF-SHA-512)
	aesKey, err := deriveContentKey(sharedSecret, aad, ctKem)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	// 3. AES-256-GCM with a fresh nonce
	nonce := make([]byte, AESNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext, err := encryptAESGCM(aesKey, nonce, aad, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	payload := &EncryptedPayload{
		V:           Version,
		Algs:        AlgorithmSuite,
		CtKem:       ctKem,
		Nonce:       nonce,
		AAD:         aad,
		Ciphertext:  ciphertext,
		ServerSigPk: e.signer.PublicKey,
	}

	// 4. Sign the transcript
	payload.Sig = e.signer.Sign(buildTranscript(payload))

	return payload, nil
}
