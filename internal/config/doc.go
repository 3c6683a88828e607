// Package config loads lockpass settings.
//
// Values are layered: built-in defaults, then the YAML config file, then
// LOCKPASS_* environment variables. Command flags are applied last by the
// command that owns them. Each setting remembers which layer set it.
package config
