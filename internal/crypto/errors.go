package crypto

import "errors"

var (
	// ErrInvalidClientKey is returned when the client-supplied KEM public
	// key is empty, not base64url, or has the wrong decoded length. It is
	// the only error class Encrypt reports in detail; everything else is
	// coalesced into ErrEncryptionFailed.
	ErrInvalidClientKey = errors.New("invalid client key")

	// ErrEncryptionFailed is the opaque error for any encryption failure
	// not attributable to bad client input. Primitive-level detail is
	// logged server-side only.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrInvalidSecretKeySize is returned when a loaded signing secret key
	// has the wrong size.
	ErrInvalidSecretKeySize = errors.New("invalid secret key size")

	// ErrInvalidPublicKeySize is returned when a loaded signing public key
	// has the wrong size.
	ErrInvalidPublicKeySize = errors.New("invalid public key size")

	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when the nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrDecryptionFailed is returned when AEAD decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed")
)
