// Package heroes is the typed GraphQL client for hero records. It builds
// parameterized requests for the seven backend operations, classifies transport
// and service failures into the herodb error taxonomy, and unwraps the
// single-field response envelope into per-operation results. A 401/403
// response while a session is live triggers forced session eviction before
// the error reaches the caller.
package heroes
