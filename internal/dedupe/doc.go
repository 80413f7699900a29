// ABOUTME: Package documentation for dedupe
// ABOUTME: Explains the activity redelivery protection layer

// Package dedupe prevents redelivered activities from running twice.
//
// Channels retry delivery when a response is slow or a connection drops,
// so the same activity can arrive at the ingestion endpoint more than
// once. The cache performs an atomic check-and-mark keyed by channel and
// activity ID; a duplicate is acknowledged upstream without dispatching
// a second turn. Entries expire after a TTL and the cache is bounded, so
// memory stays flat under sustained traffic.
package dedupe
