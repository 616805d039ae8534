// Package config loads, normalizes, and validates takeoutfix configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TAKEOUTFIX_EXIFTOOL. The Config type centralizes every knob the CLI and the
// batch runner need, so state/log/output directories and the exiftool binary
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
