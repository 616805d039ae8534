// Package workflow runs takeoutfix batches end to end.
//
// A Runner holds the single-writer lock on the state directory and drives one
// of two modes. Patch mode discovers sidecars, filters them into a batch,
// gates the batch on preflight (every sidecar must resolve to media, every
// sidecar must decode) and only then writes capture times through a Patcher.
// Mtime mode writes each file's own modification time instead.
//
// Mutation failures never abort the process. Each one becomes a per-entry
// Result; Options.HaltOnError decides whether the remaining entries are still
// attempted or recorded as not_attempted. Every run lands in the history
// ledger and as a JSON report in the log directory.
package workflow
