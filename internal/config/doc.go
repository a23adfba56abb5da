// Package config loads, normalizes, and validates the TOML configuration
// consumed by the queue orchestrator and the command builder. The builder
// treats the loaded Config as an immutable snapshot per invocation; nothing
// mutates it after Load returns.
package config
