// Package preflight gates a takeout batch before anything on disk changes.
//
// Two kinds of checks live here:
//   - Validate resolves every sidecar in a batch and refuses the batch when
//     any sidecar has no media file, listing all of them at once.
//   - Environment checks (RunAll, CheckDirectoryAccess, CheckExiftool)
//     back the "takeoutfix status" command and the workflow runner.
package preflight
