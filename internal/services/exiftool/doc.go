// Package exiftool writes capture dates into media files through ExifTool.
//
// Tag reads and writes go through a long-lived go-exiftool session
// (-stay_open), while the metadata rebuild and file-date sync steps use
// one-shot invocations because they rely on ExifTool's tag-copy syntax.
//
// Primary entry points:
//   - New: resolves the binary and opens a session
//   - Client.Patch: the full patch sequence for one media file
package exiftool
