package order

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Cursor marks the last row of a page under the (created_at DESC, id DESC)
// ordering. The encoded form is an opaque token for API clients.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

type cursorPayload struct {
	CreatedAt string `json:"created_at"`
	ID        string `json:"id"`
}

// Encode returns the opaque base64 token for the cursor. The timestamp keeps
// full sub-second precision: created_at is timestamptz and rows created within
// the same second must not be skipped when resuming.
func (c Cursor) Encode() string {
	payload, _ := json.Marshal(cursorPayload{
		CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		ID:        c.ID,
	})

	return base64.StdEncoding.EncodeToString(payload)
}

// DecodeCursor parses an opaque cursor token. It reports ok=false for absent
// or malformed tokens, which callers treat as "start from the beginning".
func DecodeCursor(token string) (Cursor, bool) {
	if token == "" {
		return Cursor{}, false
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, false
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Cursor{}, false
	}

	// RFC3339Nano parses tokens with or without fractional seconds.
	createdAt, err := time.Parse(time.RFC3339Nano, payload.CreatedAt)
	if err != nil || payload.ID == "" {
		return Cursor{}, false
	}

	return Cursor{CreatedAt: createdAt, ID: payload.ID}, true
}
