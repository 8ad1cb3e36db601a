// Package auth guards the taskstore admin endpoints with HMAC-signed JWTs.
//
// Verifier checks a bearer token against a shared secret, and Middleware
// plugs it into a gin route group. The authenticated Identity is stored in
// the request context.
package auth
