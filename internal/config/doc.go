// Package config loads, normalizes, and validates archivebatch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ARCHIVEBATCH_API_TOKEN. The Config type centralizes every knob the CLI and
// workflow need, so the archive endpoint, pacing, and log routing are resolved
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
