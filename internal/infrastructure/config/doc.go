// Package config loads application configuration from environment
// variables using envconfig, with sane defaults for local development.
package config
