// ABOUTME: Scoped state accessors (conversation and user state) over a Storage
// ABOUTME: Lazy per-turn loading through the turn-state bag, flushed at turn end

package state

import (
	"context"
	"fmt"

	"github.com/2389/parley-gateway/internal/activity"
	"github.com/2389/parley-gateway/internal/turn"
)

// ScopeKeyFunc derives a storage scope key from the current turn's activity.
type ScopeKeyFunc func(a *activity.Activity) (string, error)

// Scoped is a typed view over a Storage for one state partition (conversation
// or user). It is stateless itself: the per-turn cache lives in the turn's
// state bag, so a single Scoped instance safely serves concurrent turns.
//
// Within one turn reads and writes go through the cached bag, so state is
// read-then-write consistent for that turn. Across concurrent turns touching
// the same scope the semantics are last-flush-wins; callers needing mutual
// exclusion must provide it above this layer.
type Scoped struct {
	storage  Storage
	cacheKey string
	scopeKey ScopeKeyFunc
}

// NewConversationState returns the accessor for state shared by all
// participants of a conversation, keyed by (channel, conversation).
func NewConversationState(storage Storage) *Scoped {
	return &Scoped{
		storage:  storage,
		cacheKey: "state.ConversationState",
		scopeKey: func(a *activity.Activity) (string, error) {
			if a.Conversation == nil || a.Conversation.ID == "" {
				return "", fmt.Errorf("%w: missing conversation id", ErrNoScope)
			}
			return a.ChannelID + "/conversations/" + a.Conversation.ID, nil
		},
	}
}

// NewUserState returns the accessor for state that follows a user across
// conversations, keyed by (channel, user).
func NewUserState(storage Storage) *Scoped {
	return &Scoped{
		storage:  storage,
		cacheKey: "state.UserState",
		scopeKey: func(a *activity.Activity) (string, error) {
			if a.From.ID == "" {
				return "", fmt.Errorf("%w: missing sender id", ErrNoScope)
			}
			return a.ChannelID + "/users/" + a.From.ID, nil
		},
	}
}

// cachedState is the per-turn view of one scope, parked in the turn bag.
type cachedState struct {
	key string
	bag PropertyBag
}

// Load returns this scope's bag for the current turn, reading from storage
// on first access and serving the turn-local cache afterwards.
func (s *Scoped) Load(ctx context.Context, tc *turn.Context) (PropertyBag, error) {
	if v, ok := tc.Get(s.cacheKey); ok {
		return v.(*cachedState).bag, nil
	}

	key, err := s.scopeKey(tc.Activity)
	if err != nil {
		return nil, err
	}

	read, err := s.storage.Read(ctx, []string{key})
	if err != nil {
		return nil, fmt.Errorf("loading state %s: %w", key, err)
	}
	bag, ok := read[key]
	if !ok {
		bag = make(PropertyBag)
	}

	tc.Set(s.cacheKey, &cachedState{key: key, bag: bag})
	return bag, nil
}

// GetProperty returns a single named property from this scope's bag.
func (s *Scoped) GetProperty(ctx context.Context, tc *turn.Context, name string) (any, bool, error) {
	bag, err := s.Load(ctx, tc)
	if err != nil {
		return nil, false, err
	}
	v, ok := bag[name]
	return v, ok, nil
}

// SetProperty sets a single named property in this scope's bag. The change
// is turn-local until SaveChanges flushes it.
func (s *Scoped) SetProperty(ctx context.Context, tc *turn.Context, name string, value any) error {
	bag, err := s.Load(ctx, tc)
	if err != nil {
		return err
	}
	bag[name] = value
	return nil
}

// Clear replaces the turn-local bag with an empty one. The cleared state is
// persisted on the next SaveChanges.
func (s *Scoped) Clear(ctx context.Context, tc *turn.Context) error {
	if _, err := s.Load(ctx, tc); err != nil {
		return err
	}
	cached, _ := tc.Get(s.cacheKey)
	cached.(*cachedState).bag = make(PropertyBag)
	return nil
}

// SaveChanges flushes the turn-local bag to storage. This is the save point:
// mutations made during the turn are not visible to other turns before it.
// A turn that never loaded this scope flushes nothing.
func (s *Scoped) SaveChanges(ctx context.Context, tc *turn.Context) error {
	v, ok := tc.Get(s.cacheKey)
	if !ok {
		return nil
	}
	cached := v.(*cachedState)
	if err := s.storage.Write(ctx, map[string]PropertyBag{cached.key: cached.bag}); err != nil {
		return fmt.Errorf("flushing state %s: %w", cached.key, err)
	}
	return nil
}

// Delete removes this scope's persisted bag and drops the turn-local cache.
// Used by the error boundary to discard possibly corrupted dialog state.
func (s *Scoped) Delete(ctx context.Context, tc *turn.Context) error {
	key, err := s.scopeKey(tc.Activity)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, []string{key}); err != nil {
		return fmt.Errorf("deleting state %s: %w", key, err)
	}
	tc.Set(s.cacheKey, &cachedState{key: key, bag: make(PropertyBag)})
	return nil
}
