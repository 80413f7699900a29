// Package auth guards the inbound HTTP endpoint with bearer tokens.
//
// When a JWT secret is configured, POST /api/messages requires an
// Authorization header carrying an HS256-signed token with a "sub" claim.
// This authenticates the transport caller; validating the conversational
// protocol's own channel signatures is the credential provider's concern
// and stays outside this repository.
package auth
