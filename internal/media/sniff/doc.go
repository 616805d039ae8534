// Package sniff identifies media files by content rather than by name.
//
// Takeout archives routinely carry files whose extension disagrees with
// their bytes (HEIC data saved as .JPG, QuickTime saved as .MP4). The tag
// editor refuses to write into such files, so callers use Detect to learn the
// real kind before patching.
//
// Primary entry point:
//   - Detect: reads the file header and returns a Kind
package sniff
