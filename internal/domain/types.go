package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mr-tron/base58"
)

// Timestamp is a token creation time. The wallet API emits either an RFC3339
// string or epoch milliseconds, so both are accepted on decode.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t as a UTC Timestamp
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts RFC3339 strings, date-only strings and epoch milliseconds
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		return fmt.Errorf("unsupported timestamp format: %q", s)
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("unsupported timestamp value: %s", string(data))
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

// MarshalJSON renders the timestamp as RFC3339 (null when unset)
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Collection is the optional grouping a token belongs to
type Collection struct {
	Address *string `json:"address"`
	Name    *string `json:"name"`
}

// Key returns the grouping key: the address when present, otherwise the name.
// ok is false when neither is set, meaning the token has no valid collection.
func (c *Collection) Key() (key string, ok bool) {
	if c == nil {
		return "", false
	}
	if c.Address != nil && *c.Address != "" {
		return *c.Address, true
	}
	if c.Name != nil && *c.Name != "" {
		return *c.Name, true
	}
	return "", false
}

// DisplayName returns the collection name or an empty string
func (c *Collection) DisplayName() string {
	if c == nil || c.Name == nil {
		return ""
	}
	return *c.Name
}

// Token is a record returned by the wallet token source
type Token struct {
	Mint       string      `json:"mint"`
	Name       string      `json:"name,omitempty"`
	URI        string      `json:"uri,omitempty"`
	Collection *Collection `json:"collection"`
	CreatedAt  Timestamp   `json:"createdAt"`
}

// CollectionKey returns the token's collection grouping key
func (t Token) CollectionKey() (string, bool) {
	return t.Collection.Key()
}

// HasValidCollection reports whether the token takes part in collection grouping
func (t Token) HasValidCollection() bool {
	_, ok := t.Collection.Key()
	return ok
}

// ShortMint abbreviates the mint as "abcd...wxyz"
func (t Token) ShortMint() string {
	if len(t.Mint) <= 8 {
		return t.Mint
	}
	return t.Mint[:4] + "..." + t.Mint[len(t.Mint)-4:]
}

// Validate checks the token against the ingestion schema. The mint is an
// opaque identifier here; see ValidateSolanaMint for the stricter check.
func (t Token) Validate() error {
	if strings.TrimSpace(t.Mint) == "" {
		return fmt.Errorf("%w: missing mint", ErrInvalidToken)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("%w: mint %q has no createdAt", ErrInvalidToken, t.Mint)
	}
	return nil
}

// ValidateSolanaMint checks that the mint is a base58 Solana address
func (t Token) ValidateSolanaMint() error {
	decoded, err := base58.Decode(t.Mint)
	if err != nil {
		return fmt.Errorf("%w: mint %q is not base58: %v", ErrInvalidToken, t.Mint, err)
	}
	if len(decoded) != SOLANA_MINT_LENGTH {
		return fmt.Errorf("%w: mint %q decodes to %d bytes", ErrInvalidToken, t.Mint, len(decoded))
	}
	return nil
}

// Truncate shortens s to n characters followed by "..." when it is longer than n
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Prefix returns at most the first n characters of s
func Prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
