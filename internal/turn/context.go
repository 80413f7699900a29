// ABOUTME: Turn context representing the processing of one inbound activity
// ABOUTME: Carries the activity, the turn-state bag, and the outbound send path

package turn

import (
	"context"
	"fmt"

	"github.com/2389/parley-gateway/internal/activity"
)

// Sender delivers outbound activities back to the user's channel. The
// transport layer provides the real implementation; tests capture sends.
type Sender interface {
	SendActivity(ctx context.Context, a *activity.Activity) error
}

// Context represents one turn: the processing of a single inbound activity.
// It is owned by the dispatcher for the duration of that turn and never
// retained or shared afterward, so it needs no locking.
type Context struct {
	// Activity is the inbound event that started this turn. Read-only.
	Activity *activity.Activity

	sender Sender
	bag    map[string]any
	sent   []*activity.Activity
}

// New creates a turn context for the given inbound activity. The turn-state
// bag starts empty; the gateway injects values before dispatch.
func New(a *activity.Activity, sender Sender) *Context {
	return &Context{
		Activity: a,
		sender:   sender,
		bag:      make(map[string]any),
	}
}

// Set stores a value in the turn-state bag. Re-setting a key overwrites.
// The bag passes transient objects between pipeline stages for this turn
// only; it is distinct from conversation and user state, which are durable.
func (c *Context) Set(key string, value any) {
	c.bag[key] = value
}

// Get returns a value from the turn-state bag and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.bag[key]
	return v, ok
}

// MustGet returns a value from the turn-state bag, panicking if absent.
// Used for values the gateway guarantees to inject before dispatch.
func (c *Context) MustGet(key string) any {
	v, ok := c.bag[key]
	if !ok {
		panic(fmt.Sprintf("turn: missing required turn-state key %q", key))
	}
	return v
}

// SendActivity sends an outbound activity to the user and records it on the
// turn for inspection.
func (c *Context) SendActivity(ctx context.Context, a *activity.Activity) error {
	if err := c.sender.SendActivity(ctx, a); err != nil {
		return fmt.Errorf("sending activity: %w", err)
	}
	c.sent = append(c.sent, a)
	return nil
}

// SendText is a convenience that replies to the inbound activity with text.
func (c *Context) SendText(ctx context.Context, text string) error {
	return c.SendActivity(ctx, c.Activity.CreateReply(text))
}

// Sent returns the outbound activities sent so far during this turn.
func (c *Context) Sent() []*activity.Activity {
	return c.sent
}
