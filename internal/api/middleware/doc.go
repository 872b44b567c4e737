// Package middleware provides Gin middleware for CORS and rate limiting.
package middleware
