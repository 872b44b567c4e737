// Package monitoring provides Prometheus metrics for the HTTP facade,
// the rendering surface, the editor bridge, and WebSocket sessions.
package monitoring
