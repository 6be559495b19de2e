package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size applied when a request omits the limit.
	DefaultLimit = 25
	// MaxLimit caps how many rows one page can return.
	MaxLimit = 100
)

// Params holds the cursor inputs passed from controllers down to repositories.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor pins a page boundary to the (created_at, id) sort key so that rows
// inserted while paging cannot shift or duplicate results.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

// NormalizeLimit clamps the requested limit into [1, MaxLimit], substituting
// the default when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer adds the extra row used to detect whether a next page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor serializes a cursor into an opaque URL-safe token.
func EncodeCursor(cursor Cursor) string {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a token produced by EncodeCursor. A blank token means
// the first page and yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	if cursor.ID == uuid.Nil {
		return nil, fmt.Errorf("invalid cursor id")
	}
	return &cursor, nil
}
