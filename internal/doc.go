// Package internal contains helper utilities that are intentionally private to the
// authentication module, including secure random generation for one-time codes and
// emailed challenge secrets.
//
// # What this package must NOT do
//
//   - Export types that appear in the public API.
//   - Be imported by any package outside this module.
package internal
