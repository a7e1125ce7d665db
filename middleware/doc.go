// Package middleware exposes HTTP middleware adapters for session and
// pending two-factor token enforcement built on top of Engine validation,
// plus the JSON response envelope shared by authentication endpoints.
//
// # Guards
//
//   - [RequireSession] — full session tokens only; pending two-factor tokens are rejected.
//   - [RequireTempToken] — pending two-factor tokens only, for challenge completion endpoints.
//   - [WithRequestContext] — copies client IP, device ID, and User-Agent into the engine context.
//
// Each guard reads the Authorization header, validates through the Engine,
// and injects validated claims into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself.
package middleware
