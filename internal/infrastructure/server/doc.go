// Package server assembles the service: configuration, logging,
// metrics, the component store and seeder, HTTP routes, and the editor
// WebSocket endpoint.
package server
