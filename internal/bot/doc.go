// Package bot is the turn-processing core of parley-gateway.
//
// # Dispatcher
//
// Bot is the single entry point invoked once per inbound activity. It routes
// by activity type: messages go to the dialog engine's MessageHandler, invoke
// activities go to a handler registered for their name, and everything else
// is acknowledged but ignored. On successful completion it flushes
// conversation and user state - the save point for the turn.
//
// One Bot instance is created at process start and injected into every
// turn's state bag under TurnStateKey, so pipeline stages reach it through
// the turn context rather than a module global.
//
// # Error containment
//
// ErrorBoundary wraps dispatch. Dialog state lives inside conversation
// state, so a handler failure mid-dialog leaves it suspect; the boundary
// deletes the conversation scope and sends the user a single apology message
// rather than resuming from a corrupted position. Failures are typed:
// HandlerError is contained at the turn boundary, RecoveryError escapes as a
// fatal request failure.
//
// # Background tasks
//
// Supervise is the process-wide policy for goroutines nobody awaits: log the
// failure, keep running.
package bot
