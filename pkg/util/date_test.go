package util

import (
	"testing"
	"time"
)

func TestParseDatePlain(t *testing.T) {
	got, err := ParseDate("2024-01-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseDateRFC3339TruncatesToUTCDate(t *testing.T) {
	got, err := ParseDate("2024-01-02T01:30:00+07:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDate(got) != "2024-01-01" {
		t.Fatalf("unexpected date %s", FormatDate(got))
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
}

func TestParseDateWhitespace(t *testing.T) {
	got, err := ParseDate("  2023-12-31 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDate(got) != "2023-12-31" {
		t.Fatalf("unexpected date %s", FormatDate(got))
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, s := range []string{"", "2024-13-01", "2024-02-30", "01/02/2024", "yesterday", "1704067200"} {
		if _, err := ParseDate(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}
