package crypto

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/vaultsandbox/gateway-sub005/internal/wire"
)

// SigningKeypair holds the server's long-lived ML-DSA-65 keypair.
// It is read-only after construction and safe for concurrent use.
type SigningKeypair struct {
	// PublicKey is the raw ML-DSA-65 public key bytes.
	PublicKey []byte
	// PublicKeyB64 is the public key encoded as URL-safe base64.
	PublicKeyB64 string

	privateKey *mldsa65.PrivateKey
}

// GenerateSigningKeypair creates a fresh ephemeral ML-DSA-65 keypair.
// Used when no key files are configured; payloads from an ephemeral key
// cannot be verified across server restarts.
func GenerateSigningKeypair() (*SigningKeypair, error) {
	pub, priv, err := mldsa65.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate signing keypair: %w", err)
	}

	// MarshalBinary never fails for freshly generated keys
	pubBytes, _ := pub.MarshalBinary()

	return &SigningKeypair{
		PublicKey:    pubBytes,
		PublicKeyB64: wire.ToBase64URL(pubBytes),
		privateKey:   priv,
	}, nil
}

// LoadSigningKeypair loads the keypair from two raw binary files and
// validates the exact expected byte lengths. A mismatch is fatal for the
// caller; there is no partial fallback. The secret key bytes are held in
// locked memory while being unpacked and wiped afterwards.
func LoadSigningKeypair(secretKeyPath, publicKeyPath string) (*SigningKeypair, error) {
	skBytes, err := os.ReadFile(secretKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read signing secret key: %w", err)
	}

	// NewBufferFromBytes wipes skBytes; the locked buffer is the only copy.
	skBuf := memguard.NewBufferFromBytes(skBytes)
	defer skBuf.Destroy()

	if skBuf.Size() != MLDSASecretKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSecretKeySize, skBuf.Size(), MLDSASecretKeySize)
	}

	pkBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read signing public key: %w", err)
	}
	if len(pkBytes) != MLDSAPublicKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPublicKeySize, len(pkBytes), MLDSAPublicKeySize)
	}

	priv := &mldsa65.PrivateKey{}
	if err := priv.UnmarshalBinary(skBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("unmarshal signing secret key: %w", err)
	}

	kp := &SigningKeypair{
		PublicKey:    pkBytes,
		PublicKeyB64: wire.ToBase64URL(pkBytes),
		privateKey:   priv,
	}

	if !kp.consistent() {
		return nil, fmt.Errorf("signing key files do not form a keypair")
	}

	return kp, nil
}

// NewSigningKeypairFromBytes reconstructs a keypair from raw key bytes.
func NewSigningKeypairFromBytes(secretKey, publicKey []byte) (*SigningKeypair, error) {
	if len(secretKey) != MLDSASecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}
	if len(publicKey) != MLDSAPublicKeySize {
		return nil, ErrInvalidPublicKeySize
	}

	priv := &mldsa65.PrivateKey{}
	if err := priv.UnmarshalBinary(secretKey); err != nil {
		return nil, fmt.Errorf("unmarshal signing secret key: %w", err)
	}

	kp := &SigningKeypair{
		PublicKey:    append([]byte(nil), publicKey...),
		PublicKeyB64: wire.ToBase64URL(publicKey),
		privateKey:   priv,
	}

	if !kp.consistent() {
		return nil, fmt.Errorf("signing key bytes do not form a keypair")
	}

	return kp, nil
}

// consistent reports whether the loaded public key verifies signatures
// produced by the loaded secret key.
func (k *SigningKeypair) consistent() bool {
	sample := []byte("vaultsandbox signing key check")
	return VerifySignature(k.PublicKey, sample, k.Sign(sample))
}

// Sign produces a deterministic ML-DSA-65 signature over msg.
func (k *SigningKeypair) Sign(msg []byte) []byte {
	sig := make([]byte, MLDSASignatureSize)
	mldsa65.SignTo(k.privateKey, msg, nil, false, sig)
	return sig
}

// VerifySignature verifies an ML-DSA-65 signature against a raw public key.
func VerifySignature(publicKey, msg, sig []byte) bool {
	pk := &mldsa65.PublicKey{}
	if err := pk.UnmarshalBinary(publicKey); err != nil {
		return false
	}
	return mldsa65.Verify(pk, msg, nil, sig)
}
