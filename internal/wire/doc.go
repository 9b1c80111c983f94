// Package wire defines the serialization boundary of the gateway core.
//
// Every binary protocol field (keys, nonces, ciphertexts, signatures)
// crosses the wire as URL-safe base64 without padding (RFC 4648 §5).
// The Payload type is the JSON shape of an encrypted payload as consumed
// by clients; its field names are part of the protocol and must not change.
package wire
