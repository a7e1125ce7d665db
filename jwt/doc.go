// Package jwt manages session-token and pending two-factor token issuance and
// verification using configured signing keys and strict validation semantics.
package jwt
