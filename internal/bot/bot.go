// ABOUTME: Activity dispatcher routing inbound activities to message and invoke handlers
// ABOUTME: Owns the per-turn save point that flushes conversation and user state

package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/parley-gateway/internal/activity"
	"github.com/2389/parley-gateway/internal/state"
	"github.com/2389/parley-gateway/internal/turn"
)

// TurnStateKey is the turn-state bag key under which the gateway injects the
// bot handle before dispatch, so downstream stages can reach it without any
// global lookup.
const TurnStateKey = "bot"

// MessageHandler is the opaque dialog engine. It is invoked once per message
// activity with the scoped state accessors bound to the current turn.
type MessageHandler interface {
	OnMessage(ctx context.Context, tc *turn.Context, conv, user *state.Scoped) error
}

// MessageHandlerFunc adapts a function to the MessageHandler interface.
type MessageHandlerFunc func(ctx context.Context, tc *turn.Context, conv, user *state.Scoped) error

func (f MessageHandlerFunc) OnMessage(ctx context.Context, tc *turn.Context, conv, user *state.Scoped) error {
	return f(ctx, tc, conv, user)
}

// InvokeResponse is the synchronous result of an invoke activity. Unlike a
// fire-and-forget message it travels back to the caller as the HTTP response
// body rather than as an outbound activity.
type InvokeResponse struct {
	Status int `json:"status"`
	Body   any `json:"body,omitempty"`
}

// InvokeHandler handles one named invoke operation.
type InvokeHandler func(ctx context.Context, tc *turn.Context, conv, user *state.Scoped) (*InvokeResponse, error)

// Bot is the single dispatch target for inbound activities. One instance is
// created at process start and serves every turn; it holds no per-turn state.
type Bot struct {
	conv    *state.Scoped
	user    *state.Scoped
	handler MessageHandler
	invokes map[string]InvokeHandler
	logger  *slog.Logger
}

// New creates a Bot dispatching messages to handler and flushing the given
// state accessors at the end of each successful turn.
func New(conv, user *state.Scoped, handler MessageHandler, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		conv:    conv,
		user:    user,
		handler: handler,
		invokes: make(map[string]InvokeHandler),
		logger:  logger.With("component", "bot"),
	}
}

// RegisterInvoke registers the handler for an invoke activity name.
// Re-registering a name overwrites the previous handler.
func (b *Bot) RegisterInvoke(name string, fn InvokeHandler) {
	b.invokes[name] = fn
}

// ConversationState returns the conversation-scoped accessor bound to this bot.
func (b *Bot) ConversationState() *state.Scoped { return b.conv }

// UserState returns the user-scoped accessor bound to this bot.
func (b *Bot) UserState() *state.Scoped { return b.user }

// OnTurn processes one inbound activity:
//
//  1. message activities go to the dialog engine's message handler
//  2. invoke activities go to the handler registered for their name; the
//     handler's return value becomes the transport response body
//  3. activities of any other type, and invokes with an unrecognized name,
//     are acknowledged but not acted on
//  4. on success, conversation then user state are flushed to storage
//
// Errors are returned to the caller unrecovered; the ErrorBoundary wraps
// this method and owns containment.
func (b *Bot) OnTurn(ctx context.Context, tc *turn.Context) (*InvokeResponse, error) {
	var resp *InvokeResponse

	switch tc.Activity.Type {
	case activity.TypeMessage:
		if err := b.handler.OnMessage(ctx, tc, b.conv, b.user); err != nil {
			return nil, fmt.Errorf("message handler: %w", err)
		}

	case activity.TypeInvoke:
		fn, ok := b.invokes[tc.Activity.Name]
		if !ok {
			// Default-ignore: unknown operations are acknowledged without
			// state mutation or outbound activity.
			b.logger.Debug("ignoring unrecognized invoke", "name", tc.Activity.Name)
			return nil, nil
		}
		r, err := fn(ctx, tc, b.conv, b.user)
		if err != nil {
			return nil, fmt.Errorf("invoke handler %s: %w", tc.Activity.Name, err)
		}
		resp = r

	default:
		// Deliberate default-ignore for activity types outside message/invoke.
		b.logger.Debug("ignoring activity", "type", tc.Activity.Type)
		return nil, nil
	}

	// Save point: mutations made during this turn become visible to other
	// turns only after the flush completes.
	if err := b.conv.SaveChanges(ctx, tc); err != nil {
		return nil, fmt.Errorf("flushing conversation state: %w", err)
	}
	if err := b.user.SaveChanges(ctx, tc); err != nil {
		return nil, fmt.Errorf("flushing user state: %w", err)
	}

	return resp, nil
}
