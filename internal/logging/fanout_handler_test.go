package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if h := newFanoutHandler(nil, nil); h != slog.DiscardHandler {
		t.Fatalf("expected the discard handler when every handler is nil, got %T", h)
	}
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if got := newFanoutHandler(nil, inner); got != inner {
		t.Fatalf("expected single handler to be returned as-is, got %T", got)
	}
}

func TestFanoutHandlerRespectsPerHandlerLevels(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debugHandler := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnHandler := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(newFanoutHandler(debugHandler, warnHandler)).With("run_id", "r1")

	logger.Debug("probing candidate")
	logger.Warn("sidecar skipped")

	if !strings.Contains(debugBuf.String(), "probing candidate") || !strings.Contains(debugBuf.String(), "sidecar skipped") {
		t.Fatalf("debug handler missing records: %q", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "probing candidate") {
		t.Fatalf("warn handler received debug record: %q", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "run_id=r1") {
		t.Fatalf("expected attrs to propagate to every handler: %q", warnBuf.String())
	}
	if !slog.New(newFanoutHandler(warnHandler)).Handler().Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected error level to be enabled")
	}
}

func TestFanoutHandlerGroupsAndJoinsErrors(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(newFanoutHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)).WithGroup("exiftool")
	logger.Info("tags written", "file", "IMG_0001.jpg")
	for _, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, "exiftool.file=IMG_0001.jpg") {
			t.Fatalf("expected grouped attr in %q", out)
		}
	}

	failing := newFanoutHandler(failingHandler{}, failingHandler{})
	err := failing.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
	if err == nil || strings.Count(err.Error(), "disk full") != 2 {
		t.Fatalf("expected both handler errors joined, got %v", err)
	}
}

type failingHandler struct{}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h failingHandler) WithGroup(string) slog.Handler { return h }
