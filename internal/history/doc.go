// Package history persists a ledger of takeoutfix runs in SQLite.
//
// Every batch invocation opens a run, records one result per sidecar (or per
// file in mtime mode) and closes the run with its totals. The ledger backs the
// `runs` commands and is pruned to the configured number of most recent runs.
//
// The database lives in the state directory. Schema changes bump the version in
// schema.go; users delete history.db to adopt the new schema.
package history
