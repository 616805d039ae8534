package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	scanBufferInitial = 64 * 1024
	scanBufferMax     = 1024 * 1024
	followFallback    = time.Second
)

// Query selects records from the log file.
type Query struct {
	// RunID keeps records whose run_id starts with this value.
	RunID string
	// MinLevel drops records below this level (debug, info, warn, error).
	MinLevel string
	// Limit keeps only the last Limit matching records. Zero keeps all.
	Limit int
}

// Tail returns the last matching records and the file offset to resume
// following from. A missing log file yields no records.
func Tail(path string, q Query) ([]Record, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	var (
		ring  []Record
		idx   int
		count int
		all   []Record
	)
	if q.Limit > 0 {
		ring = make([]Record, q.Limit)
	}
	offset, err := scanRecords(file, q, func(record Record) {
		if q.Limit <= 0 {
			all = append(all, record)
			return
		}
		ring[idx] = record
		idx = (idx + 1) % q.Limit
		if count < q.Limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}
	if q.Limit <= 0 {
		return all, offset, nil
	}

	records := make([]Record, count)
	if count == q.Limit {
		for i := 0; i < count; i++ {
			records[i] = ring[(idx+i)%q.Limit]
		}
	} else {
		copy(records, ring[:count])
	}
	return records, offset, nil
}

// Follow watches the log file and calls fn for every new matching record
// from offset until ctx is done. The directory is watched so a log file that
// does not exist yet is picked up once created; a slow poll covers
// filesystems that do not deliver events. A truncated file is read again from
// the start.
func Follow(ctx context.Context, path string, offset int64, q Query, fn func(Record)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create log watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch log directory: %w", err)
	}

	ticker := time.NewTicker(followFallback)
	defer ticker.Stop()

	target := filepath.Clean(path)
	for {
		next, err := readFrom(path, offset, q, fn)
		if err != nil {
			return err
		}
		offset = next

		if err := waitForChange(ctx, watcher, ticker.C, target); err != nil {
			return err
		}
	}
}

// waitForChange blocks until target is written or created, the fallback
// tick fires, or ctx is done.
func waitForChange(ctx context.Context, watcher *fsnotify.Watcher, tick <-chan time.Time, target string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("log watcher closed")
			}
			if filepath.Clean(event.Name) == target && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("log watcher closed")
			}
			return fmt.Errorf("watch log file: %w", err)
		}
	}
}

func readFrom(path string, offset int64, q Query, fn func(Record)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	consumed, err := scanRecords(file, q, fn)
	if err != nil {
		return offset, err
	}
	return offset + consumed, nil
}

// scanRecords reads complete lines from r and reports how many bytes were
// consumed. A trailing partial line is left for the next read.
func scanRecords(r io.Reader, q Query, fn func(Record)) (int64, error) {
	reader := bufio.NewReaderSize(r, scanBufferInitial)
	var consumed int64
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			consumed += int64(len(line))
			if len(line) <= scanBufferMax {
				if record, ok := parseRecord(line[:len(line)-1]); ok && q.matches(record) {
					fn(record)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
	}
}
