// Package turn models a single turn of conversation processing.
//
// A turn is the handling of exactly one inbound activity, from ingestion to
// state flush (or error recovery). The turn Context carries the activity,
// a per-turn key/value bag used to hand objects (the bot handle, loaded
// state) to downstream stages without global lookup, and the send path for
// outbound activities.
//
// Contexts are single-owner and single-turn: the dispatcher creates one per
// inbound activity, drives it to completion, and drops it.
package turn
