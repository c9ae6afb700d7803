// Package config handles configuration loading, parsing, and validation
// from .env files, an optional config.yaml and APP_-prefixed environment
// variables. It provides type-safe access to application settings needed
// by different components while keeping configuration details separate
// from business logic.
package config
