package exiftool_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	goexiftool "github.com/barasher/go-exiftool"

	"takeoutfix/internal/services"
	"takeoutfix/internal/services/exiftool"
)

var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
)

const takenAt = "2015:07:04 10:30:00.000+00:00"

type fakeSession struct {
	existing   map[string]string
	failWrites int
	writes     []goexiftool.FileMetadata
	extracted  []string
	onWrite    func(path string)
	closed     bool
}

func (s *fakeSession) ExtractMetadata(files ...string) []goexiftool.FileMetadata {
	out := make([]goexiftool.FileMetadata, 0, len(files))
	for _, f := range files {
		s.extracted = append(s.extracted, f)
		fields := map[string]interface{}{"FileName": filepath.Base(f)}
		for k, v := range s.existing {
			fields[k] = v
		}
		out = append(out, goexiftool.FileMetadata{File: f, Fields: fields})
	}
	return out
}

func (s *fakeSession) WriteMetadata(batch []goexiftool.FileMetadata) {
	for i := range batch {
		if s.onWrite != nil {
			s.onWrite(batch[i].File)
		}
		if s.failWrites > 0 {
			s.failWrites--
			batch[i].Err = errors.New("Error: Bad format (0) for IFD0 entry 0")
			continue
		}
		s.writes = append(s.writes, batch[i])
	}
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type recordedCall struct {
	binary string
	args   []string
}

func newTestClient(t *testing.T, session *fakeSession, opts exiftool.Options) (*exiftool.Client, *[]recordedCall) {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "exiftool")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	opts.Binary = bin

	t.Cleanup(exiftool.SetSessionFactoryForTests(func(string) (exiftool.Session, error) {
		return session, nil
	}))
	calls := &[]recordedCall{}
	t.Cleanup(exiftool.SetRunnerForTests(func(_ context.Context, binary string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{binary: binary, args: append([]string(nil), args...)})
		return nil, nil
	}))

	client, err := exiftool.New(opts, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, calls
}

func writeMedia(t *testing.T, name string, data []byte, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPatchWritesBothTagsAndRestoresTimes(t *testing.T) {
	session := &fakeSession{}
	client, calls := newTestClient(t, session, exiftool.Options{})
	stamp := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeMedia(t, "IMG_0253(2).jpg", jpegHeader, stamp)

	result, err := client.Patch(context.Background(), path, takenAt)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if result != exiftool.Patched {
		t.Fatalf("expected patched, got %s", result)
	}
	if len(session.writes) != 1 {
		t.Fatalf("expected one write, got %d", len(session.writes))
	}
	written := session.writes[0]
	if written.File != path {
		t.Fatalf("unexpected write target %s", written.File)
	}
	for _, tag := range []string{exiftool.TagDateTimeOriginal, exiftool.TagCreateDate} {
		if got, err := written.GetString(tag); err != nil || got != takenAt {
			t.Fatalf("expected %s=%s, got %q (%v)", tag, takenAt, got, err)
		}
	}
	if len(written.Fields) != 2 {
		t.Fatalf("expected only the two date tags to be written, got %v", written.Fields)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no one-shot invocations, got %v", *calls)
	}
	info, _ := os.Stat(path)
	if !info.ModTime().Equal(stamp) {
		t.Fatalf("expected mtime restored to %v, got %v", stamp, info.ModTime())
	}
}

func TestPatchLeavesExistingCaptureDate(t *testing.T) {
	session := &fakeSession{existing: map[string]string{exiftool.TagCreateDate: "2010:01:01 00:00:00"}}
	client, calls := newTestClient(t, session, exiftool.Options{SyncFileDates: true})
	path := writeMedia(t, "IMG_0001.jpg", jpegHeader, time.Now())

	result, err := client.Patch(context.Background(), path, takenAt)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if result != exiftool.AlreadyDated {
		t.Fatalf("expected already dated, got %s", result)
	}
	if len(session.writes) != 0 {
		t.Fatalf("expected no writes, got %d", len(session.writes))
	}
	if len(*calls) != 1 {
		t.Fatalf("expected file dates synced once for an already dated file, got %v", *calls)
	}
	args := (*calls)[0].args
	if args[0] != "-FileModifyDate<CreateDate" || args[len(args)-1] != path {
		t.Fatalf("unexpected sync arguments %v", args)
	}
}

func TestPatchAlreadyDatedWithoutSyncRunsNothing(t *testing.T) {
	session := &fakeSession{existing: map[string]string{exiftool.TagDateTimeOriginal: "2010:01:01 00:00:00"}}
	client, calls := newTestClient(t, session, exiftool.Options{})
	path := writeMedia(t, "IMG_0003.jpg", jpegHeader, time.Now())

	result, err := client.Patch(context.Background(), path, takenAt)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if result != exiftool.AlreadyDated {
		t.Fatalf("expected already dated, got %s", result)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no one-shot invocations, got %v", *calls)
	}
}

func TestPatchRenamesToContentExtensionAndBack(t *testing.T) {
	session := &fakeSession{}
	client, _ := newTestClient(t, session, exiftool.Options{})
	path := writeMedia(t, "Screenshot.jpg", pngHeader, time.Now())
	workPath := filepath.Join(filepath.Dir(path), "Screenshot.png")

	session.onWrite = func(target string) {
		if target != workPath {
			t.Errorf("expected write against %s, got %s", workPath, target)
		}
		if _, err := os.Stat(workPath); err != nil {
			t.Errorf("expected renamed file during write: %v", err)
		}
	}

	if _, err := client.Patch(context.Background(), path, takenAt); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected original name restored: %v", err)
	}
	if _, err := os.Stat(workPath); !os.IsNotExist(err) {
		t.Fatalf("expected temporary name to be gone, stat err=%v", err)
	}
}

func TestPatchRefusesRenameOntoExistingFile(t *testing.T) {
	session := &fakeSession{}
	client, _ := newTestClient(t, session, exiftool.Options{})
	path := writeMedia(t, "Screenshot.jpg", pngHeader, time.Now())
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "Screenshot.png"), pngHeader, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := client.Patch(context.Background(), path, takenAt)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPatchSkipsAppleEditFiles(t *testing.T) {
	session := &fakeSession{}
	client, _ := newTestClient(t, session, exiftool.Options{})
	plist := []byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<plist version=\"1.0\"><dict></dict></plist>\n")
	path := writeMedia(t, "IMG_0001.AAE", plist, time.Now())

	result, err := client.Patch(context.Background(), path, takenAt)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if result != exiftool.SkippedAppleEdit {
		t.Fatalf("expected AAE skip, got %s", result)
	}
	if len(session.extracted) != 0 {
		t.Fatal("expected AAE file not to be read")
	}
}

func TestPatchRejectsUnsupportedContent(t *testing.T) {
	session := &fakeSession{}
	client, _ := newTestClient(t, session, exiftool.Options{})
	path := writeMedia(t, "notes.jpg", []byte("just some text in disguise"), time.Now())

	_, err := client.Patch(context.Background(), path, takenAt)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if services.FailureStatus(err) != services.StatusInvalid {
		t.Fatalf("expected invalid status for %v", err)
	}
}

func TestPatchMissingFile(t *testing.T) {
	client, _ := newTestClient(t, &fakeSession{}, exiftool.Options{})
	_, err := client.Patch(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"), takenAt)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestPatchRepairsAndRetries(t *testing.T) {
	session := &fakeSession{failWrites: 1}
	client, calls := newTestClient(t, session, exiftool.Options{RepairOnFailure: true})
	path := writeMedia(t, "broken.jpg", jpegHeader, time.Now())

	result, err := client.Patch(context.Background(), path, takenAt)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if result != exiftool.Patched || len(session.writes) != 1 {
		t.Fatalf("expected retry to succeed, result=%s writes=%d", result, len(session.writes))
	}
	if len(*calls) != 1 || !slices.Contains((*calls)[0].args, "-tagsfromfile") || (*calls)[0].args[len((*calls)[0].args)-1] != path {
		t.Fatalf("expected one rebuild invocation, got %v", *calls)
	}
	if (*calls)[0].binary != client.Binary() {
		t.Fatalf("expected resolved binary, got %s", (*calls)[0].binary)
	}
}

func TestPatchWithoutRepairSurfacesWriteError(t *testing.T) {
	session := &fakeSession{failWrites: 1}
	client, calls := newTestClient(t, session, exiftool.Options{RepairOnFailure: false})
	path := writeMedia(t, "broken.jpg", jpegHeader, time.Now())

	_, err := client.Patch(context.Background(), path, takenAt)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no repair invocation, got %v", *calls)
	}
}

func TestPatchSyncsFileDates(t *testing.T) {
	session := &fakeSession{}
	client, calls := newTestClient(t, session, exiftool.Options{SyncFileDates: true})
	path := writeMedia(t, "IMG_0002.jpg", jpegHeader, time.Now())

	if _, err := client.Patch(context.Background(), path, takenAt); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one sync invocation, got %v", *calls)
	}
	args := (*calls)[0].args
	if args[0] != "-FileModifyDate<CreateDate" || args[3] != "-FileCreateDate<DateTimeOriginal" {
		t.Fatalf("unexpected sync arguments %v", args)
	}
}

func TestNewFailsWithoutBinary(t *testing.T) {
	t.Setenv("PATH", "")
	_, err := exiftool.New(exiftool.Options{Binary: filepath.Join(t.TempDir(), "missing")}, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCloseStopsSession(t *testing.T) {
	session := &fakeSession{}
	client, _ := newTestClient(t, session, exiftool.Options{})
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !session.closed {
		t.Fatal("expected session to be closed")
	}
	path := writeMedia(t, "late.jpg", jpegHeader, time.Now())
	if _, err := client.Patch(context.Background(), path, takenAt); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error after close, got %v", err)
	}
}
