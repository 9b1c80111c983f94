package crypto

import (
	"fmt"

	"github.com/vaultsandbox/gateway-sub005/internal/wire"
)

// AlgorithmSuite is the suite used by this server for every payload.
var AlgorithmSuite = wire.AlgorithmSuite{
	KEM:  "ML-KEM-768",
	Sig:  "ML-DSA-65",
	AEAD: "AES-256-GCM",
	KDF:  "HKDF-SHA-512",
}

// EncryptedPayload holds all protocol fields of one encrypted email field
// in raw binary form. Encoding to wire text happens only at the
// serialization boundary via ToWire.
type EncryptedPayload struct {
	// V is the protocol version number.
	V int
	// Algs is the algorithm suite the payload was produced under.
	Algs wire.AlgorithmSuite
	// CtKem is the ML-KEM-768 ciphertext from encapsulation.
	CtKem []byte
	// Nonce is the 12-byte AES-GCM nonce.
	Nonce []byte
	// AAD is the caller-supplied additional authenticated data, may be empty.
	AAD []byte
	// Ciphertext is the AES-GCM ciphertext including the 16-byte tag.
	Ciphertext []byte
	// Sig is the ML-DSA-65 signature over the transcript.
	Sig []byte
	// ServerSigPk is the server's ML-DSA-65 public key.
	ServerSigPk []byte
}

// ToWire converts the payload to its JSON wire form, base64url-encoding
// every binary field without padding.
func (p *EncryptedPayload) ToWire() *wire.Payload {
	return &wire.Payload{
		V:           p.V,
		Algs:        p.Algs,
		CtKem:       wire.ToBase64URL(p.CtKem),
		Nonce:       wire.ToBase64URL(p.Nonce),
		AAD:         wire.ToBase64URL(p.AAD),
		Ciphertext:  wire.ToBase64URL(p.Ciphertext),
		Sig:         wire.ToBase64URL(p.Sig),
		ServerSigPk: wire.ToBase64URL(p.ServerSigPk),
	}
}

// FromWire decodes a wire payload back into binary form. It reverses
// ToWire exactly and fails on any field that is not valid base64url.
func FromWire(w *wire.Payload) (*EncryptedPayload, error) {
	p := &EncryptedPayload{V: w.V, Algs: w.Algs}

	var err error
	if p.CtKem, err = wire.FromBase64URL(w.CtKem); err != nil {
		return nil, fmt.Errorf("decode ct_kem: %w", err)
	}
	if p.Nonce, err = wire.FromBase64URL(w.Nonce); err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	if p.AAD, err = wire.FromBase64URL(w.AAD); err != nil {
		return nil, fmt.Errorf("decode aad: %w", err)
	}
	if p.Ciphertext, err = wire.FromBase64URL(w.Ciphertext); err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if p.Sig, err = wire.FromBase64URL(w.Sig); err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if p.ServerSigPk, err = wire.FromBase64URL(w.ServerSigPk); err != nil {
		return nil, fmt.Errorf("decode server_sig_pk: %w", err)
	}

	return p, nil
}
