package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"
)

// deriveContentKey performs HKDF-SHA-512 key derivation for the
// encryption scheme.
//
// The key derivation uses:
//   - IKM (input key material): the KEM shared secret
//   - Salt: SHA-256 hash of the KEM ciphertext (unique per encapsulation)
//   - Info: context string || AAD length (4 bytes BE) || AAD
//
// The AAD length prefix is a fixed-width 4-byte big-endian integer; the
// width and endianness are part of the protocol and must not change.
// This produces a 256-bit key suitable for AES-256-GCM.
func deriveContentKey(sharedSecret, aad, ctKem []byte) ([]byte, error) {
	saltHash := sha256.Sum256(ctKem)
	salt := saltHash[:]

	contextBytes := []byte(HKDFContext)
	aadLength := make([]byte, 4)
	binary.BigEndian.PutUint32(aadLength, uint32(len(aad)))

	info := make([]byte, 0, len(contextBytes)+4+len(aad))
	info = append(info, contextBytes...)
	info = append(info, aadLength...)
	info = append(info, aad...)

	reader := hkdf.New(sha512.New, sharedSecret, salt, info)
	key := make([]byte, AESKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}

	return key, nil
}
