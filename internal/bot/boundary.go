// ABOUTME: Error boundary containing handler failures at the turn boundary
// ABOUTME: Resets conversation state and notifies the user with a single apology message

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/2389/parley-gateway/internal/turn"
)

// apologyPrefix is the fixed prefix of the one user-visible failure signal.
// Only the top-level error message is appended, never diagnostic detail.
const apologyPrefix = "Sorry, it looks like something went wrong: "

// ErrorBoundary wraps Bot.OnTurn. A failing or panicking handler does not
// resume from a partially mutated dialog position: the conversation state is
// deleted and the user is told, trading continuity for consistency.
type ErrorBoundary struct {
	bot    *Bot
	logger *slog.Logger
}

// NewErrorBoundary creates the boundary around the given bot.
func NewErrorBoundary(b *Bot, logger *slog.Logger) *ErrorBoundary {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorBoundary{
		bot:    b,
		logger: logger.With("component", "error-boundary"),
	}
}

// Run dispatches one turn and contains any failure.
//
// On handler failure the boundary logs the error with a stack trace, deletes
// conversation state for the current scope, and sends exactly one apology
// message. A contained failure returns a nil error: from the transport's
// point of view the turn completed. If the recovery itself fails there is no
// further tier and a *RecoveryError is returned for the transport to surface
// as a fatal request failure.
func (e *ErrorBoundary) Run(ctx context.Context, tc *turn.Context) (*InvokeResponse, error) {
	resp, err := e.dispatch(ctx, tc)
	if err == nil {
		return resp, nil
	}

	handlerErr := &HandlerError{Err: err}
	e.logger.Error("turn failed",
		"error", handlerErr.Err,
		"activity_type", tc.Activity.Type,
		"conversation", tc.Activity.Conversation.ID,
		"stack", string(debug.Stack()),
	)

	if derr := e.bot.ConversationState().Delete(ctx, tc); derr != nil {
		return nil, &RecoveryError{Cause: handlerErr, Err: derr}
	}

	if serr := tc.SendText(ctx, apologyPrefix+handlerErr.Err.Error()); serr != nil {
		return nil, &RecoveryError{Cause: handlerErr, Err: serr}
	}

	return nil, nil
}

// dispatch invokes OnTurn, converting handler panics into errors so a
// panicking dialog cannot escape the turn boundary.
func (e *ErrorBoundary) dispatch(ctx context.Context, tc *turn.Context) (resp *InvokeResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return e.bot.OnTurn(ctx, tc)
}

// PanicError carries a recovered handler panic as an ordinary error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}
