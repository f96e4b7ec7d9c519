// Package config loads, normalizes, and validates the TOML configuration
// shared by the CLI and the daemon. Defaults live in defaults.go; every path
// field is expanded and absolute after Load returns.
package config
