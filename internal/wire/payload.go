package wire

// Payload is the JSON wire form of an encrypted payload. All binary
// fields are base64url-encoded without padding.
type Payload struct {
	// V is the protocol version number.
	V int `json:"v"`
	// Algs specifies the cryptographic algorithm suite used.
	Algs AlgorithmSuite `json:"algs"`
	// CtKem is the ML-KEM-768 ciphertext.
	CtKem string `json:"ct_kem"`
	// Nonce is the AES-GCM nonce/IV.
	Nonce string `json:"nonce"`
	// AAD is the additional authenticated data.
	AAD string `json:"aad"`
	// Ciphertext is the AES-GCM ciphertext including the authentication tag.
	Ciphertext string `json:"ciphertext"`
	// Sig is the ML-DSA-65 signature over the transcript.
	Sig string `json:"sig"`
	// ServerSigPk is the server's ML-DSA-65 public key.
	ServerSigPk string `json:"server_sig_pk"`
}

// AlgorithmSuite identifies the four algorithms of the protocol suite.
type AlgorithmSuite struct {
	// KEM is the key encapsulation mechanism (e.g., "ML-KEM-768").
	KEM string `json:"kem"`
	// Sig is the signature algorithm (e.g., "ML-DSA-65").
	Sig string `json:"sig"`
	// AEAD is the authenticated encryption algorithm (e.g., "AES-256-GCM").
	AEAD string `json:"aead"`
	// KDF is the key derivation function (e.g., "HKDF-SHA-512").
	KDF string `json:"kdf"`
}

// String returns the canonical colon-joined ciphersuite string used in
// the signing transcript.
func (a AlgorithmSuite) String() string {
	return a.KEM + ":" + a.Sig + ":" + a.AEAD + ":" + a.KDF
}
