// Package logging assembles the slog loggers used by takeoutfix.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context helpers that tag log lines with run IDs, stages and sidecar paths.
// The console handler writes human-oriented blocks to the terminal while the
// log file always receives JSON so runs can be grepped after the fact.
package logging
