package registry

import (
	"fmt"
	"strings"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/domain"
)

// OperatorRegistry defines the interface for roster lookups
type OperatorRegistry interface {
	// MatchBadge returns the first operator, in roster order, whose code appears in the scanned text
	MatchBadge(text string) (*domain.Operator, error)

	// Operators returns the roster in file order
	Operators() []domain.Operator
}

// OperatorRegistryLoader loads the operator roster from a JSON file
type OperatorRegistryLoader struct {
	fs   adapter.FileSystem
	json adapter.JSON
}

// NewOperatorRegistryLoader creates a new roster loader
func NewOperatorRegistryLoader(fs adapter.FileSystem, json adapter.JSON) *OperatorRegistryLoader {
	return &OperatorRegistryLoader{fs: fs, json: json}
}

// Load reads the roster file: a JSON array of operators
func (l *OperatorRegistryLoader) Load(filePath string) (OperatorRegistry, error) {
	data, err := l.fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read operator roster file: %w", err)
	}

	var operators []domain.Operator
	if err := l.json.Unmarshal(data, &operators); err != nil {
		return nil, fmt.Errorf("failed to parse operator roster JSON: %w", err)
	}

	seen := make(map[string]bool, len(operators))
	for i, op := range operators {
		if strings.TrimSpace(op.Code) == "" {
			return nil, fmt.Errorf("operator %d (%s) has no badge code", i, op.ID)
		}
		if seen[op.Code] {
			return nil, fmt.Errorf("duplicate badge code %s", op.Code)
		}
		seen[op.Code] = true
	}

	return &operatorRegistry{operators: operators}, nil
}

// operatorRegistry is the internal implementation of OperatorRegistry
type operatorRegistry struct {
	operators []domain.Operator
}

// NewOperatorRegistry builds a registry from an in-memory roster
func NewOperatorRegistry(operators []domain.Operator) OperatorRegistry {
	return &operatorRegistry{operators: append([]domain.Operator(nil), operators...)}
}

func (r *operatorRegistry) MatchBadge(text string) (*domain.Operator, error) {
	if r == nil {
		return nil, domain.ErrOperatorNotFound
	}
	// Case-sensitive containment over the raw OCR text
	for _, op := range r.operators {
		if strings.Contains(text, op.Code) {
			matched := op
			return &matched, nil
		}
	}
	return nil, domain.ErrOperatorNotFound
}

func (r *operatorRegistry) Operators() []domain.Operator {
	if r == nil {
		return nil
	}
	return append([]domain.Operator(nil), r.operators...)
}
