// Package inbox owns the in-memory inbox table and per-inbox message
// storage for the gateway core.
//
// The Registry creates, finds and deletes inboxes, enforcing uniqueness
// of the derived identity hash (the anti-key-reuse guarantee) and TTL
// bounds. The Store mutates a single inbox's message set: ordered inserts,
// the synchronization hash, read flags, strict deletes and silent evicts.
// Both share the same in-memory ownership; nothing here touches disk or
// network.
//
// Thread safety: the registry tables are guarded by one RWMutex and
// existence-check-then-insert runs entirely under it, so two concurrent
// creates with the same identity hash cannot both succeed. Each inbox
// serializes its own message mutations with a per-inbox mutex; mutations
// to different inboxes proceed concurrently.
package inbox
