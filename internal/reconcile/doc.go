// Package reconcile maps takeout metadata sidecars back to the media files
// they describe.
//
// Sidecar names drift from their media names in two historical ways. The
// exporter swaps the duplicate counter and the real extension
// ("IMG_0253.HEIC(1).json" describes "IMG_0253(1).HEIC"), and one capture
// pipeline drops a trailing zero from PNG counters. The name functions here are
// pure: they compute candidates from the sidecar's leaf name and never touch
// the filesystem. Resolver adds the only I/O, one existence check per
// candidate in priority order, and stops at the first hit.
package reconcile
