// ABOUTME: Gateway orchestrator wiring storage, bot dispatch, and the HTTP server
// ABOUTME: Manages route registration, startup, and graceful shutdown lifecycle

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/parley-gateway/internal/auth"
	"github.com/2389/parley-gateway/internal/bot"
	"github.com/2389/parley-gateway/internal/config"
	"github.com/2389/parley-gateway/internal/dedupe"
	"github.com/2389/parley-gateway/internal/state"
	"github.com/2389/parley-gateway/internal/transcript"
	"github.com/2389/parley-gateway/internal/turn"
)

// Gateway orchestrates the parley-gateway server components. It owns the
// storage backend, the bot handle (one instance for the process lifetime),
// the error boundary, and the HTTP server.
type Gateway struct {
	config   *config.Config
	storage  state.Storage
	bot      *bot.Bot
	boundary *bot.ErrorBoundary
	logger   *slog.Logger

	httpServer *http.Server

	// sender delivers outbound activities to the user's channel. The default
	// implementation logs and records to the transcript; tests substitute a
	// capture sender.
	sender turn.Sender

	// transcript is nil unless transcript.path is configured.
	transcript *transcript.Store

	// dedupe absorbs channel redeliveries of the same activity.
	dedupe *dedupe.Cache
}

// New creates a Gateway serving the given dialog engine. The bot handle is
// constructed once here and injected into every turn; nothing is looked up
// through globals.
func New(cfg *config.Config, handler bot.MessageHandler, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	storage := state.NewMemoryStorage()
	conv := state.NewConversationState(storage)
	user := state.NewUserState(storage)

	g := &Gateway{
		config:  cfg,
		storage: storage,
		logger:  logger.With("component", "gateway"),
	}

	if cfg.Transcript.Path != "" {
		ts, err := transcript.NewStore(cfg.Transcript.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing transcript: %w", err)
		}
		g.transcript = ts
	}

	g.sender = &channelSender{logger: logger.With("component", "sender"), transcript: g.transcript}
	g.bot = bot.New(conv, user, handler, logger)
	g.boundary = bot.NewErrorBoundary(g.bot, logger)
	g.dedupe = dedupe.New(5*time.Minute, 100_000)

	mux := http.NewServeMux()
	if err := g.registerRoutes(mux); err != nil {
		return nil, err
	}

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Bot returns the process-wide bot handle, for registering invoke handlers.
func (g *Gateway) Bot() *bot.Bot { return g.bot }

// registerRoutes registers all HTTP routes on the mux, applying bearer auth
// to the inbound endpoint when a JWT secret is configured.
func (g *Gateway) registerRoutes(mux *http.ServeMux) error {
	messages := http.HandlerFunc(g.handleMessages)
	if g.config.Auth.JWTSecret != "" {
		verifier, err := auth.NewJWTVerifier([]byte(g.config.Auth.JWTSecret))
		if err != nil {
			return fmt.Errorf("creating JWT verifier: %w", err)
		}
		mux.Handle("/api/messages", auth.Middleware(verifier)(messages))
		g.logger.Info("bearer auth enabled on /api/messages")
	} else {
		mux.Handle("/api/messages", messages)
		g.logger.Warn("bearer auth disabled - no jwt_secret configured")
	}

	mux.HandleFunc("/oauthcallback", g.handleOAuthCallback)
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/health/ready", g.handleReady)

	if dir := g.config.Server.PublicDir; dir != "" {
		mux.Handle("/public/", http.StripPrefix("/public/", http.FileServer(http.Dir(dir))))
	}
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails. Returns nil on graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the run context is already
// canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if g.transcript != nil {
		if err := g.transcript.Close(); err != nil {
			errs = append(errs, fmt.Errorf("transcript close: %w", err))
		}
	}
	if g.dedupe != nil {
		g.dedupe.Close()
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the gateway accepts turns. There is no
// warm-up dependency: the bot handle exists for the whole process run.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
