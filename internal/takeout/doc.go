// Package takeout reads the structure of a photo-archive export: it walks
// source directories, separates metadata sidecars from media, drops
// account-level sidecars, and decodes the capture time each sidecar carries.
//
// BuildBatch produces the list of media sidecars that the preflight gate
// resolves; everything it leaves out is reported with a reason.
package takeout
