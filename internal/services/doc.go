// Package services defines shared utilities consumed by the workflow runner
// and the external tool integrations.
//
// It provides context helpers that stamp run IDs, stage names and sidecar
// paths for logging, plus the error markers and Wrap helper that classify
// failures into per-sidecar result statuses.
package services
