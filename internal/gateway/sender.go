// ABOUTME: Default outbound activity sender for the gateway
// ABOUTME: Logs deliveries and records them to the transcript when enabled

package gateway

import (
	"context"
	"log/slog"

	"github.com/2389/parley-gateway/internal/activity"
	"github.com/2389/parley-gateway/internal/bot"
	"github.com/2389/parley-gateway/internal/transcript"
)

// channelSender is the process-default turn.Sender. Delivery to the actual
// conversational channel is the connector service's job; from the pipeline's
// perspective an outbound activity is handed off here, logged, and recorded.
type channelSender struct {
	logger     *slog.Logger
	transcript *transcript.Store
}

func (s *channelSender) SendActivity(ctx context.Context, a *activity.Activity) error {
	conversationID := ""
	if a.Conversation != nil {
		conversationID = a.Conversation.ID
	}
	s.logger.Info("sending activity",
		"type", a.Type,
		"conversation", conversationID,
		"recipient", a.Recipient.ID,
	)

	if s.transcript != nil {
		ts := s.transcript
		bot.Supervise(s.logger, "transcript-outbound", func() error {
			return ts.Record(context.Background(), transcript.DirectionOutbound, a)
		})
	}
	return nil
}
