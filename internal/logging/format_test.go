package logging

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatValueForKeyShortensHomePaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := formatValueForKey(FieldMedia, slog.StringValue(filepath.Join(home, "Takeout", "IMG_0001(1).jpg")))
	want := filepath.Join("~", "Takeout", "IMG_0001(1).jpg")
	if got != want {
		t.Fatalf("media = %q, want %q", got, want)
	}

	outside := filepath.Join(filepath.Dir(home), "elsewhere", "photo 1.jpg.json")
	if got := formatValueForKey(FieldSidecar, slog.StringValue(outside)); got != `"`+outside+`"` {
		t.Fatalf("sidecar outside home = %q", got)
	}
}

func TestFormatValueForKeyTruncatesErrorsOnRunes(t *testing.T) {
	long := strings.Repeat("é", maxErrorRunes+10)
	got := formatValueForKey("error", slog.AnyValue(errors.New(long)))
	if !utf8.ValidString(got) {
		t.Fatalf("truncated error is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxErrorRunes+1 {
		t.Fatalf("expected %d runes including ellipsis, got %d", maxErrorRunes+1, n)
	}
}

func TestFormatValueQuoting(t *testing.T) {
	tests := []struct {
		value slog.Value
		want  string
	}{
		{slog.StringValue("swap_position"), "swap_position"},
		{slog.StringValue("two words"), `"two words"`},
		{slog.StringValue(""), `""`},
		{slog.IntValue(3), "3"},
		{slog.AnyValue(errors.New("a=b")), `"a=b"`},
	}
	for _, tc := range tests {
		if got := formatValue(tc.value); got != tc.want {
			t.Fatalf("formatValue(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}
