// Package crypto implements the server side of the VaultSandbox encryption
// protocol: hybrid post-quantum encryption of stored email fields to a
// client-supplied key, and signing of every payload with the server's
// long-lived keypair.
//
// # Algorithm Suite
//
//   - ML-KEM-768 (NIST FIPS 203): key encapsulation against the client's
//     public key, establishing a fresh shared secret per payload.
//
//   - ML-DSA-65 (NIST FIPS 204): server signature over the payload
//     transcript, proving origin and binding all protocol fields.
//
//   - AES-256-GCM: authenticated encryption of the email content.
//
//   - HKDF-SHA-512 (RFC 5869): derivation of the AES key from the KEM
//     shared secret with domain separation.
//
// # Payload construction
//
// Encrypt validates the client key before touching any primitive, then:
//
//  1. Encapsulates against the client's ML-KEM-768 public key.
//  2. Derives an AES-256 key via HKDF-SHA-512 with salt = SHA-256(ct_kem)
//     and info = context || be32(len(aad)) || aad.
//  3. Seals the plaintext under a fresh 12-byte nonce with the caller's AAD.
//  4. Signs the transcript
//     version || algs || context || ct_kem || nonce || aad || ciphertext || server_pk
//     with the server's ML-DSA-65 secret key.
//
// Two calls on identical plaintext never produce identical payloads: the
// encapsulation and the nonce are freshly random every time.
//
// # Key management
//
// The server signing keypair is either loaded from two raw binary files
// with exact-length validation or generated ephemerally at startup. The
// secret key is read-only after initialization and may be shared across
// goroutines without synchronization.
package crypto
