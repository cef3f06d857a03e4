// Package herodb is the client-side session and data-access layer for the
// superhero database front-end. It owns the pieces of the application that
// carry real state and ordering contracts:
//
// Session lifecycle:
//   - SessionSubject is a process-wide latest-value broadcast cell holding the
//     authenticated identity and its bearer token. Every Set persists the value
//     to the configured SessionStore before notifying subscribers, so storage
//     may transiently lead memory but never trail it.
//   - Service drives login, registration, email confirmation, code resend, and
//     logout against an IdentityProvider adapter. Logout is best-effort: the
//     local session is cleared and the caller redirected even when the hosted
//     provider cannot be reached.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Service to describe
//     login, registration, confirmation, and eviction events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or queue
//     without blocking authentication.
//
// Token guards:
//   - TokenValidator implementations vet persisted bearer tokens at boot.
//     JWKSValidator verifies signatures against the identity provider's JWKS
//     endpoint; ExpiryValidator only rejects tokens that are already expired.
//
// The typed GraphQL client for hero records lives in the heroes subpackage;
// identity provider adapters live under provider/.
package herodb
