// Package auth provides the account security engine for the JobsDB backend:
// credential login with brute-force lockout, email one-time-password
// two-factor, trusted devices, email verification, password reset, and
// federated identity sign-in.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// This package is the public surface. It exposes [Engine], [Builder],
// [Config], the store interfaces ([UserStore], [LoginAttemptStore],
// [TrustedDeviceStore]) and value types (User, LoginResult, LockoutState,
// etc.). Token signing lives in the jwt sub-package, password hashing in
// password, mail composition in mail, HTTP plumbing in middleware, and
// identity-provider flows in federation.
//
// # What this package must NOT do
//
//   - Expose Redis clients, raw password hashes, or challenge secrets in its
//     public API ([User.Sanitized] strips them before callers see a user).
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Decide transport concerns — handlers map engine errors to responses via
//     the middleware package.
//
// # Availability contract
//
// The lockout guard and the resend/reset throttles fail open: when the
// attempt store or Redis is unreachable, login and challenge flows proceed on
// credentials alone rather than refusing service.
package auth
