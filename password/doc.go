// Package password implements password hashing and verification with bcrypt.
//
// # Output format
//
// Hashes are stored in the standard bcrypt modular crypt format produced by
// golang.org/x/crypto/bcrypt:
//
//	$2a$<cost>$<salt+hash>
//
// The cost factor is embedded in the hash, so stored credentials remain
// verifiable after the configured cost changes.
//
// # Architecture boundaries
//
// This package owns hashing, verification, and constant-time comparison of
// short secrets only. Password policy (length, reuse) is enforced by the
// Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other package of this module.
//   - Log plaintext passwords or cost parameters at runtime.
package password
