package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// encryptAESGCM encrypts plaintext using AES-256-GCM.
// Returns ciphertext || tag (16 bytes) as one buffer; the nonce is not
// prepended, it travels as a separate payload field.
func encryptAESGCM(key, nonce, aad, plaintext []byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}

	if len(nonce) != AESNonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), AESNonceSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return aesGCM.Seal(nil, nonce, plaintext, aad), nil
}

// decryptAESGCM decrypts ciphertext || tag using AES-256-GCM. The
// gateway never decrypts stored mail; this exists to round-trip the
// encryptor against an independent opener.
func decryptAESGCM(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}

	if len(nonce) != AESNonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), AESNonceSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
