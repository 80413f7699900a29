// ABOUTME: HTTP handlers for activity ingestion and the OAuth callback bridge
// ABOUTME: Provides POST /api/messages dispatch and the fixed sign-in landing page

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/2389/parley-gateway/internal/activity"
	"github.com/2389/parley-gateway/internal/bot"
	"github.com/2389/parley-gateway/internal/transcript"
	"github.com/2389/parley-gateway/internal/turn"
)

// oauthCallbackHTML is the terminal page of the out-of-band sign-in flow.
// It only needs to exist and respond deterministically: the host window
// closes itself after a short fixed delay.
const oauthCallbackHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Sign-in complete</title>
  <script>
    setTimeout(function () { window.close(); }, 3000);
  </script>
</head>
<body>
  <p>Sign-in complete. You can close this window.</p>
</body>
</html>
`

// handleMessages handles POST /api/messages, the inbound activity endpoint.
//
// Responsibilities:
//  1. Decode the Activity JSON body
//  2. Reject malformed activities (missing type or conversation id) with 400
//  3. Acknowledge channel redeliveries without dispatching a second turn
//  4. Build a fresh turn context and inject the bot handle into turn state
//  5. Dispatch through the error boundary
//  6. Respond: empty 200 for messages, JSON body for invoke results,
//     500 plain text when recovery itself failed
func (g *Gateway) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var a activity.Activity
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "invalid activity payload", http.StatusBadRequest)
		return
	}
	if err := a.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if g.dedupe.Seen(&a) {
		// Channel redelivery of an activity we already processed. Acknowledge
		// so the channel stops retrying, but do not run a second turn.
		g.logger.Debug("duplicate activity skipped", "activity_id", a.ID, "channel_id", a.ChannelID)
		w.WriteHeader(http.StatusOK)
		return
	}

	g.recordTranscript(&a)

	tc := turn.New(&a, g.sender)
	tc.Set(bot.TurnStateKey, g.bot)

	resp, err := g.boundary.Run(r.Context(), tc)
	if err != nil {
		// Recovery failed; there is no further tier below the transport.
		g.logger.Error("turn recovery failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if resp != nil {
		writeInvokeResponse(w, resp)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// recordTranscript appends the inbound activity to the transcript without
// blocking or failing the turn. Uses a background context: the record should
// land even if the request finishes first.
func (g *Gateway) recordTranscript(a *activity.Activity) {
	if g.transcript == nil {
		return
	}
	ts := g.transcript
	bot.Supervise(g.logger, "transcript-inbound", func() error {
		return ts.Record(context.Background(), transcript.DirectionInbound, a)
	})
}

// writeInvokeResponse writes an invoke handler's result as the HTTP response.
// The handler's status becomes the HTTP status; a body, when present, is
// JSON-encoded.
func writeInvokeResponse(w http.ResponseWriter, resp *bot.InvokeResponse) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if resp.Body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}

// handleOAuthCallback handles GET /oauthcallback, the terminal redirect of
// the sign-in flow. The response is byte-identical regardless of query
// parameters; nothing is read from or written to state.
func (g *Gateway) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body := []byte(oauthCallbackHTML)
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// corsMiddleware applies the blanket CORS policy: any origin, the standard
// verb set, on every response this service produces.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
