// ABOUTME: Built-in demo dialog and invoke registrations for the gateway binary
// ABOUTME: Echoes messages with a per-conversation turn counter

package main

import (
	"context"
	"fmt"

	"github.com/2389/parley-gateway/internal/bot"
	"github.com/2389/parley-gateway/internal/state"
	"github.com/2389/parley-gateway/internal/turn"
)

// newEchoDialog returns the default dialog engine: echo with a turn counter
// held in conversation state. Real deployments replace this with their own
// MessageHandler; the pipeline treats it as opaque either way.
func newEchoDialog() bot.MessageHandler {
	return bot.MessageHandlerFunc(func(ctx context.Context, tc *turn.Context, conv, user *state.Scoped) error {
		v, _, err := conv.GetProperty(ctx, tc, "count")
		if err != nil {
			return err
		}
		count, _ := v.(int)
		count++
		if err := conv.SetProperty(ctx, tc, "count", count); err != nil {
			return err
		}

		return tc.SendText(ctx, fmt.Sprintf("%d: You said %q", count, tc.Activity.Text))
	})
}

// registerInvokes wires the invoke operations the gateway answers natively.
func registerInvokes(b *bot.Bot) {
	// Terminal step of the sign-in flow: the channel verifies the magic
	// state value after the user lands on /oauthcallback.
	b.RegisterInvoke("signin/verifyState", func(ctx context.Context, tc *turn.Context, conv, user *state.Scoped) (*bot.InvokeResponse, error) {
		if err := user.SetProperty(ctx, tc, "signedIn", true); err != nil {
			return nil, err
		}
		return &bot.InvokeResponse{Status: 200}, nil
	})
}
