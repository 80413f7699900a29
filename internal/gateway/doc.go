// Package gateway wires the parley-gateway server together.
//
// # Overview
//
// The gateway owns the HTTP server and all major components: the storage
// backend, the scoped state accessors, the bot dispatcher and its error
// boundary, the optional transcript store, and the outbound sender.
//
// # HTTP surface
//
//   - POST /api/messages - inbound activity ingestion and turn dispatch
//   - GET  /oauthcallback - terminal page of the out-of-band sign-in flow
//   - GET  /public/*      - static files from the configured local directory
//   - GET  /health        - liveness check
//   - GET  /health/ready  - readiness check
//
// Every response carries the blanket CORS policy (any origin, standard
// verbs). When auth.jwt_secret is configured, /api/messages additionally
// requires a bearer token.
//
// # Turn flow
//
// A request to /api/messages becomes exactly one turn: the activity is
// decoded and validated, a fresh turn context is created with the bot handle
// injected into its state bag, and the error boundary drives dispatch. The
// response is empty for fire-and-forget messages, a JSON body for invoke
// results, or 500 when recovery itself failed.
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, dialogHandler, logger)
//	err = gw.Run(ctx) // blocks until ctx cancel, then graceful shutdown
package gateway
