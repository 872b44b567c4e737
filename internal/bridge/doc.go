// Package bridge implements the typed, correlated message protocol
// between the controlling editor and the isolated rendering surface.
//
// Payloads are plain JSON objects tagged with a "type" discriminant:
// select, mutate, serialize, serialized, error. Mutate commands are
// fire-and-forget. Serialize requests track a single pending correlation
// per bridge: a new request abandons the previous one, and an unanswered
// request fails after the configured timeout (3s by default).
package bridge
