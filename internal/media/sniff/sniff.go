package sniff

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind describes the detected content of a file.
type Kind struct {
	// MIME is the detected media type, e.g. "image/heic".
	MIME string
	// Extension is the canonical extension for the content, with leading dot.
	// Empty when the content is not a supported media type.
	Extension string
	aliases   []string
}

type format struct {
	mime       string
	extensions []string
}

// supported lists the formats the tag editor can write date tags into. The
// first extension of each entry is canonical.
var supported = []format{
	{mime: "image/jpeg", extensions: []string{".jpg", ".jpeg"}},
	{mime: "image/png", extensions: []string{".png"}},
	{mime: "image/gif", extensions: []string{".gif"}},
	{mime: "image/heic", extensions: []string{".heic", ".heif"}},
	{mime: "image/heif", extensions: []string{".heic", ".heif"}},
	{mime: "image/tiff", extensions: []string{".tiff", ".tif"}},
	{mime: "image/webp", extensions: []string{".webp"}},
	{mime: "video/mp4", extensions: []string{".mp4", ".m4v"}},
	{mime: "video/quicktime", extensions: []string{".mov", ".qt"}},
}

// Detect inspects the header of path.
func Detect(path string) (Kind, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Kind{}, errors.New("sniff: empty path")
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Kind{}, fmt.Errorf("sniff %s: %w", path, err)
	}
	return classify(mtype), nil
}

func classify(mtype *mimetype.MIME) Kind {
	kind := Kind{MIME: mtype.String()}
	for m := mtype; m != nil; m = m.Parent() {
		for _, f := range supported {
			if m.Is(f.mime) {
				kind.Extension = f.extensions[0]
				kind.aliases = f.extensions
				return kind
			}
		}
	}
	return kind
}

// Supported reports whether dates can be written into this kind.
func (k Kind) Supported() bool {
	return k.Extension != ""
}

// MatchesName reports whether path already carries an extension accepted for
// this kind. Comparison ignores case, so IMG_0001.JPG matches image/jpeg.
func (k Kind) MatchesName(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, alias := range k.aliases {
		if ext == alias {
			return true
		}
	}
	return false
}

// IsAppleEdit reports whether path names an Apple photo-edit sidecar (.AAE).
// Those files are plist XML and carry no date tags.
func IsAppleEdit(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".aae")
}
