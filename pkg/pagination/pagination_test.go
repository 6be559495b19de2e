package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultLimit},
		{in: -5, want: DefaultLimit},
		{in: 10, want: 10},
		{in: MaxLimit, want: MaxLimit},
		{in: MaxLimit + 1, want: MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}

	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d, want 11", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := ParseCursor(EncodeCursor(original))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if parsed == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", original.CreatedAt, parsed.CreatedAt)
	}
	if parsed.ID != original.ID {
		t.Fatalf("expected id %s, got %s", original.ID, parsed.ID)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	cursor, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor for blank input, got %+v", cursor)
	}
}

func TestParseCursorMalformed(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := ParseCursor("bm8tc2VwYXJhdG9y"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}
