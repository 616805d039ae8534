package takeout

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"takeoutfix/internal/reconcile"
)

// Entry is a regular file found under a source root.
type Entry struct {
	Path string
	Size int64
}

// Discover walks every root and returns its regular files sorted by path
// for deterministic processing order. Symlinks are not followed.
func Discover(ctx context.Context, roots []string) ([]Entry, error) {
	var entries []Entry
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			entries = append(entries, Entry{Path: path, Size: info.Size()})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Sidecars returns the paths of entries named *.json (any case).
func Sidecars(entries []Entry) []string {
	var out []string
	for _, entry := range entries {
		if reconcile.IsSidecarName(filepath.Base(entry.Path)) {
			out = append(out, entry.Path)
		}
	}
	return out
}

// Paths returns the path of every entry.
func Paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, entry := range entries {
		out[i] = entry.Path
	}
	return out
}
