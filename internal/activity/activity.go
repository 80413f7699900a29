// ABOUTME: Activity model for the conversational protocol handled by parley-gateway
// ABOUTME: Defines the inbound/outbound event shape, validation, and reply construction

package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrMalformed is returned when an inbound activity is missing required fields.
// Malformed activities are rejected before dispatch, never silently dropped.
var ErrMalformed = errors.New("malformed activity")

// Activity type constants. Types outside this set are acknowledged but not
// acted on (default-ignore).
const (
	TypeMessage = "message"
	TypeInvoke  = "invoke"
)

// ChannelAccount identifies a user or bot on a channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ConversationAccount identifies the conversation an activity belongs to.
type ConversationAccount struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId,omitempty"`
}

// Activity is a single conversational-protocol event. Inbound activities are
// produced by the transport layer and treated as immutable by the pipeline;
// outbound activities are built with CreateReply or NewMessage.
type Activity struct {
	Type         string               `json:"type"`
	ID           string               `json:"id,omitempty"`
	Name         string               `json:"name,omitempty"`
	Text         string               `json:"text,omitempty"`
	ChannelID    string               `json:"channelId,omitempty"`
	ServiceURL   string               `json:"serviceUrl,omitempty"`
	From         ChannelAccount       `json:"from,omitempty"`
	Recipient    ChannelAccount       `json:"recipient,omitempty"`
	Conversation *ConversationAccount `json:"conversation,omitempty"`
	ReplyToID    string               `json:"replyToId,omitempty"`
	Value        json.RawMessage      `json:"value,omitempty"`
	Timestamp    time.Time            `json:"timestamp,omitempty"`
}

// Validate checks that the fields the turn pipeline depends on are present.
// Returns ErrMalformed (wrapped with the missing field) when they are not.
func (a *Activity) Validate() error {
	if a.Type == "" {
		return fmt.Errorf("%w: missing type", ErrMalformed)
	}
	if a.Conversation == nil || a.Conversation.ID == "" {
		return fmt.Errorf("%w: missing conversation id", ErrMalformed)
	}
	return nil
}

// CreateReply builds an outbound message activity addressed back to the
// sender of this activity, carrying over the conversation and channel.
func (a *Activity) CreateReply(text string) *Activity {
	return &Activity{
		Type:         TypeMessage,
		ID:           uuid.New().String(),
		Text:         text,
		ChannelID:    a.ChannelID,
		ServiceURL:   a.ServiceURL,
		From:         a.Recipient,
		Recipient:    a.From,
		Conversation: a.Conversation,
		ReplyToID:    a.ID,
		Timestamp:    time.Now().UTC(),
	}
}

// NewMessage builds a freestanding outbound message activity for the given
// conversation. Used by components that send without an inbound activity in hand.
func NewMessage(channelID, conversationID, text string) *Activity {
	return &Activity{
		Type:         TypeMessage,
		ID:           uuid.New().String(),
		Text:         text,
		ChannelID:    channelID,
		Conversation: &ConversationAccount{ID: conversationID},
		Timestamp:    time.Now().UTC(),
	}
}
