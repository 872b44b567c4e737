// Package session owns per-editor working state and the autosave state
// machine. A session tracks two source buffers (the raw text the user
// types and the derived text produced by serializing the live preview),
// collapses edits from both into a single desired payload, and persists
// it after a quiet debounce window. Responses for payloads that are no
// longer desired are discarded rather than trusted.
package session
