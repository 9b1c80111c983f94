package crypto

// buildTranscript constructs the exact byte sequence that is signed for
// a payload, binding every protocol field together:
//
//	[version:1] || algs string || context string || ct_kem || nonce || aad || ciphertext || server_sig_pk
//
// Clients rebuild this byte-for-byte to verify the signature, so the
// layout must never change within a protocol version.
func buildTranscript(p *EncryptedPayload) []byte {
	algs := p.Algs.String()

	transcript := make([]byte, 0, 1+len(algs)+len(HKDFContext)+
		len(p.CtKem)+len(p.Nonce)+len(p.AAD)+len(p.Ciphertext)+len(p.ServerSigPk))

	transcript = append(transcript, byte(p.V))
	transcript = append(transcript, algs...)
	transcript = append(transcript, HKDFContext...)
	transcript = append(transcript, p.CtKem...)
	transcript = append(transcript, p.Nonce...)
	transcript = append(transcript, p.AAD...)
	transcript = append(transcript, p.Ciphertext...)
	transcript = append(transcript, p.ServerSigPk...)

	return transcript
}
