// Package state provides durable, scoped state for the turn pipeline.
//
// # Storage
//
// Storage is the persistence contract: batched Read/Write/Delete of
// PropertyBags keyed by an opaque scope string, last-writer-wins per key.
// MemoryStorage is the default backend; anything stronger (a database, a
// compare-and-swap layer) substitutes behind the same interface without
// touching the dispatcher.
//
// # Scoped accessors
//
// Scoped composes a Storage with a scope-key derivation:
//
//	conv := state.NewConversationState(storage) // {channel}/conversations/{id}
//	user := state.NewUserState(storage)         // {channel}/users/{id}
//
// Accessors are stateless; the per-turn cache lives in the turn-state bag.
// Load is lazy on first access, SaveChanges flushes at turn end, Delete
// resets a scope entirely. One Scoped instance serves all concurrent turns.
package state
