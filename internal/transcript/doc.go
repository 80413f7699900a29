// Package transcript persists an append-only audit log of activities.
//
// The transcript is deliberately decoupled from the turn pipeline: recording
// happens after dispatch, the pipeline never reads it back, and a transcript
// failure is logged rather than failing the turn. It exists for operators
// reconstructing what a conversation looked like, not for state.
//
// The backing store is SQLite (modernc.org/sqlite, pure Go). Enable it by
// setting transcript.path in the gateway configuration.
package transcript
