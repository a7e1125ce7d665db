// Package federation bridges external OIDC identity providers into the
// authentication engine.
//
// A provider runs the authorization-code flow against the upstream issuer,
// verifies the returned ID token, and yields an [auth.ExternalIdentity]
// assertion that the engine's federated-login path consumes. Google is the
// provider shipped with the module; others can follow the same shape.
package federation
