// Package gateway implements the encrypted inbox core of the
// VaultSandbox server: throwaway mailbox addresses, hybrid post-quantum
// encryption of every stored email field, and the in-memory inbox store
// with its ordering, synchronization-hash, and eviction semantics.
//
// Clients supply an ML-KEM-768 public key at inbox creation; incoming
// mail is encrypted to that key with AES-256-GCM under an HKDF-SHA-512
// derived key and signed with the server's ML-DSA-65 keypair, so only
// the client can read contents and every payload's origin is provable.
//
// The transport layer, SMTP ingestion, webhook dispatch, and certificate
// handling live outside this module and consume it through the Gateway
// operations:
//
//	cfg, _ := gateway.LoadConfig()
//	gw, err := gateway.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := gw.CreateInbox(gateway.CreateInboxRequest{
//	    ClientKemPk: clientKeyB64,
//	    TTL:         time.Hour,
//	})
//
// Everything is held in memory; durability is explicitly out of scope.
package gateway
