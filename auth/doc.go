// Package auth guards the HTTP API with HMAC-signed JWT bearer tokens.
//
// Verifier checks signature, expiry, issuer and audience. Middleware
// attaches the resulting Identity to the request context, and RequireScope
// rejects identities without a scope such as "kv:write".
package auth
