// ABOUTME: Tests for the gateway HTTP surface: ingestion, invoke responses, OAuth bridge.
// ABOUTME: Drives full turns through httptest and asserts state, sends, and wire behavior.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley-gateway/internal/activity"
	"github.com/2389/parley-gateway/internal/bot"
	"github.com/2389/parley-gateway/internal/config"
	"github.com/2389/parley-gateway/internal/state"
	"github.com/2389/parley-gateway/internal/turn"
)

// captureSender records outbound activities instead of delivering them.
type captureSender struct {
	sent []*activity.Activity
	err  error
}

func (s *captureSender) SendActivity(_ context.Context, a *activity.Activity) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, a)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{HTTPAddr: "127.0.0.1:0"},
		OAuth:  config.OAuthConfig{ConnectionName: "test-connection"},
	}
}

// countingHandler increments conversationState.count on every message.
func countingHandler(ctx context.Context, tc *turn.Context, conv, user *state.Scoped) error {
	v, _, err := conv.GetProperty(ctx, tc, "count")
	if err != nil {
		return err
	}
	count, _ := v.(int)
	return conv.SetProperty(ctx, tc, "count", count+1)
}

func newTestGateway(t *testing.T, handler bot.MessageHandler) (*Gateway, *captureSender) {
	t.Helper()
	g, err := New(testConfig(), handler, nil)
	require.NoError(t, err)
	sender := &captureSender{}
	g.sender = sender
	return g, sender
}

func postActivity(t *testing.T, g *Gateway, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleMessages_MessageTurnFlushesState(t *testing.T) {
	g, _ := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))

	body := `{"type":"message","text":"hello","conversation":{"id":"c1"},"from":{"id":"u1"}}`
	rec := postActivity(t, g, body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	// A second identical activity increments the flushed counter
	rec = postActivity(t, g, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	tc := turn.New(&activity.Activity{
		Type:         activity.TypeMessage,
		Conversation: &activity.ConversationAccount{ID: "c1"},
		From:         activity.ChannelAccount{ID: "u1"},
	}, &captureSender{})
	v, ok, err := g.bot.ConversationState().GetProperty(context.Background(), tc, "count")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestHandleMessages_RedeliverySkipsSecondTurn(t *testing.T) {
	g, _ := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))

	// Same activity ID delivered twice: the channel retried.
	body := `{"type":"message","id":"act-1","channelId":"webchat","text":"hello","conversation":{"id":"c1"},"from":{"id":"u1"}}`
	rec := postActivity(t, g, body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postActivity(t, g, body)
	assert.Equal(t, http.StatusOK, rec.Code, "redelivery is acknowledged")

	tc := turn.New(&activity.Activity{
		Type:         activity.TypeMessage,
		ChannelID:    "webchat",
		Conversation: &activity.ConversationAccount{ID: "c1"},
		From:         activity.ChannelAccount{ID: "u1"},
	}, &captureSender{})
	v, ok, err := g.bot.ConversationState().GetProperty(context.Background(), tc, "count")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v, "only the first delivery ran a turn")
}

func TestHandleMessages_MalformedActivity(t *testing.T) {
	g, sender := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))

	// Missing conversation id
	rec := postActivity(t, g, `{"type":"message","text":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed activity")

	// Missing type
	rec = postActivity(t, g, `{"conversation":{"id":"c1"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Not JSON at all
	rec = postActivity(t, g, `{{{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, sender.sent, "rejected activities never reach dispatch")
}

func TestHandleMessages_HandlerFailureContained(t *testing.T) {
	boom := errors.New("dialog exploded")
	fail := false
	g, sender := newTestGateway(t, bot.MessageHandlerFunc(
		func(ctx context.Context, tc *turn.Context, conv, user *state.Scoped) error {
			if fail {
				return boom
			}
			return countingHandler(ctx, tc, conv, user)
		}))

	body := `{"type":"message","text":"hello","conversation":{"id":"c1"},"from":{"id":"u1"}}`

	// Seed state with a successful turn
	rec := postActivity(t, g, body)
	require.Equal(t, http.StatusOK, rec.Code)

	// Failing turn: still 200 (contained), one apology, state reset
	fail = true
	rec = postActivity(t, g, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "dialog exploded")

	fail = false
	rec = postActivity(t, g, body)
	require.Equal(t, http.StatusOK, rec.Code)

	tc := turn.New(&activity.Activity{
		Type:         activity.TypeMessage,
		Conversation: &activity.ConversationAccount{ID: "c1"},
		From:         activity.ChannelAccount{ID: "u1"},
	}, &captureSender{})
	v, _, err := g.bot.ConversationState().GetProperty(context.Background(), tc, "count")
	require.NoError(t, err)
	assert.Equal(t, 1, v, "count restarts from an empty bag after the reset")
}

func TestHandleMessages_RecoveryFailureIs500(t *testing.T) {
	g, sender := newTestGateway(t, bot.MessageHandlerFunc(
		func(context.Context, *turn.Context, *state.Scoped, *state.Scoped) error {
			return errors.New("boom")
		}))
	sender.err = errors.New("channel unreachable")

	rec := postActivity(t, g, `{"type":"message","text":"x","conversation":{"id":"c1"},"from":{"id":"u1"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestHandleMessages_InvokeReturnsJSONBody(t *testing.T) {
	g, _ := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))
	g.Bot().RegisterInvoke("task/fetch", func(context.Context, *turn.Context, *state.Scoped, *state.Scoped) (*bot.InvokeResponse, error) {
		return &bot.InvokeResponse{Status: 200, Body: map[string]string{"result": "ok"}}, nil
	})

	rec := postActivity(t, g, `{"type":"invoke","name":"task/fetch","conversation":{"id":"c1"},"from":{"id":"u1"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["result"])
}

func TestHandleMessages_UnknownInvokeAcknowledged(t *testing.T) {
	g, sender := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))

	rec := postActivity(t, g, `{"type":"invoke","name":"unknown/op","conversation":{"id":"c1"},"from":{"id":"u1"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, sender.sent)
}

func TestHandleMessages_MethodNotAllowed(t *testing.T) {
	g, _ := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	g.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOAuthCallback_DeterministicHTML(t *testing.T) {
	g, _ := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		g.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	plain := get("/oauthcallback")
	withQuery := get("/oauthcallback?code=abc123&state=xyz&extra=1")

	assert.Equal(t, http.StatusOK, plain.Code)
	assert.Equal(t, http.StatusOK, withQuery.Code)

	// Byte-identical regardless of query parameters
	assert.Equal(t, plain.Body.Bytes(), withQuery.Body.Bytes())

	assert.Equal(t, "text/html", plain.Header().Get("Content-Type"))
	assert.Equal(t, len(plain.Body.Bytes()),
		mustAtoi(t, plain.Header().Get("Content-Length")))
	assert.Contains(t, plain.Body.String(), "window.close()")
	assert.Contains(t, plain.Body.String(), "3000")
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}

func TestCORS_AppliedToEveryRoute(t *testing.T) {
	g, _ := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))

	for _, target := range []string{"/health", "/oauthcallback"} {
		rec := httptest.NewRecorder()
		g.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), target)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST", target)
	}

	// Preflight
	rec := httptest.NewRecorder()
	g.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/messages", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthEndpoints(t *testing.T) {
	g, _ := newTestGateway(t, bot.MessageHandlerFunc(countingHandler))

	rec := httptest.NewRecorder()
	g.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	g.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicDir_ServedVerbatim(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("static content"), 0644))

	cfg := testConfig()
	cfg.Server.PublicDir = dir
	g, err := New(cfg, bot.MessageHandlerFunc(countingHandler), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	g.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/hello.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "static content", rec.Body.String())
}

func TestAuth_RequiredWhenSecretConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "test-secret"
	g, err := New(cfg, bot.MessageHandlerFunc(countingHandler), nil)
	require.NoError(t, err)
	g.sender = &captureSender{}

	rec := postActivity(t, g, `{"type":"message","text":"x","conversation":{"id":"c1"},"from":{"id":"u1"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Other routes stay open
	rec = httptest.NewRecorder()
	g.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauthcallback", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
