package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/miko-factory/creamdash/internal/domain"
)

// ErrMissingSecondaryFile is returned when a primary document has no properties.files[1].uri
var ErrMissingSecondaryFile = errors.New("missing secondary file")

// SecondaryFileIndex is the position of the batch data file in properties.files
const SecondaryFileIndex = 1

// PrimaryDocument is the token metadata document. Only the batch data file is read from it.
type PrimaryDocument struct {
	SecondaryURI string
}

// ParsePrimary reads properties.files[1].uri from a primary metadata document.
// Any missing or wrongly typed step along the path yields ErrMissingSecondaryFile.
func ParsePrimary(raw []byte) (*PrimaryDocument, error) {
	var doc struct {
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}

	var properties struct {
		Files []json.RawMessage `json:"files"`
	}
	if len(doc.Properties) == 0 || json.Unmarshal(doc.Properties, &properties) != nil {
		return nil, ErrMissingSecondaryFile
	}
	if len(properties.Files) <= SecondaryFileIndex {
		return nil, ErrMissingSecondaryFile
	}

	var file struct {
		URI string `json:"uri"`
	}
	if json.Unmarshal(properties.Files[SecondaryFileIndex], &file) != nil || strings.TrimSpace(file.URI) == "" {
		return nil, ErrMissingSecondaryFile
	}

	return &PrimaryDocument{SecondaryURI: strings.TrimSpace(file.URI)}, nil
}

// SecondaryDocument is the batch data document. Each field is nil when absent.
type SecondaryDocument struct {
	ID        *string
	Name      *string
	Status    *string
	StartDate *string
	Product   *string
	Quantity  *string

	// Raw is the document exactly as fetched
	Raw json.RawMessage
}

// ParseSecondary decodes a batch data document. Known fields accept strings and
// numbers (rendered as their JSON text); empty strings, zero and null count as
// absent. A known field of any other type makes the document invalid.
func ParseSecondary(raw []byte) (*SecondaryDocument, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not a JSON object", domain.ErrInvalidDocument)
	}

	doc := &SecondaryDocument{Raw: append(json.RawMessage(nil), raw...)}

	targets := []struct {
		key string
		dst **string
	}{
		{"id", &doc.ID},
		{"name", &doc.Name},
		{"status", &doc.Status},
		{"startDate", &doc.StartDate},
		{"product", &doc.Product},
		{"quantity", &doc.Quantity},
	}
	for _, t := range targets {
		v, err := flexibleString(fields[t.key])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", domain.ErrInvalidDocument, t.key, err)
		}
		*t.dst = v
	}

	return doc, nil
}

// flexibleString decodes a string or number field
func flexibleString(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return &s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return nil, err
		}
		if f == 0 {
			return nil, nil
		}
		s := string(raw)
		return &s, nil
	default:
		return nil, fmt.Errorf("unexpected JSON value %s", truncateRaw(raw))
	}
}

func truncateRaw(raw []byte) string {
	const limit = 32
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
