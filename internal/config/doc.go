// Package config loads, normalizes, and validates crmagent configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours the
// CRMAGENT_* environment overrides. The Config type centralizes every knob the
// daemon and CLI need: where the client list lives, how log followers poll,
// and how long completed sessions are retained.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
