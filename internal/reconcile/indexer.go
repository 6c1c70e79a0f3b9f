// Package reconcile indexes reply spreadsheets by identity key and compares
// them with the keys of the offer text.
package reconcile

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/settlement-converter/internal/settlement"
	"github.com/garyjia/settlement-converter/internal/spreadsheet"
)

// DuplicatePolicy decides what happens when two spreadsheet rows share a key.
type DuplicatePolicy string

const (
	// DuplicateLastWins keeps the flag of the last row seen.
	DuplicateLastWins DuplicatePolicy = "last_wins"
	// DuplicateReject fails the invocation.
	DuplicateReject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy validates a policy name from configuration.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DuplicateLastWins, DuplicateReject:
		return p, nil
	case "":
		return DuplicateLastWins, nil
	default:
		return "", fmt.Errorf("unknown duplicate key policy: %s", s)
	}
}

// Index maps identity keys to processing flags.
type Index struct {
	flags map[string]string
	keys  []settlement.IdentityKey
	// Duplicates lists keys that appeared on more than one row.
	Duplicates []settlement.IdentityKey
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{flags: make(map[string]string)}
}

// Put stores flag under key and reports whether the key was already present.
func (ix *Index) Put(key settlement.IdentityKey, flag string) bool {
	id := key.ID()
	_, exists := ix.flags[id]
	if !exists {
		ix.keys = append(ix.keys, key)
	}
	ix.flags[id] = flag
	return exists
}

// Flag looks up the processing flag of key.
func (ix *Index) Flag(key settlement.IdentityKey) (string, bool) {
	flag, ok := ix.flags[key.ID()]
	return flag, ok
}

// Keys returns the distinct keys in first-seen order.
func (ix *Index) Keys() []settlement.IdentityKey {
	return ix.keys
}

// Len is the number of distinct keys.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// KeyIndexer builds an Index from the rows of a reply spreadsheet.
type KeyIndexer struct {
	schema     settlement.KeySchema
	duplicates DuplicatePolicy
	logger     *zap.Logger
}

// NewKeyIndexer creates a new key indexer
func NewKeyIndexer(schema settlement.KeySchema, duplicates DuplicatePolicy, logger *zap.Logger) *KeyIndexer {
	return &KeyIndexer{
		schema:     schema,
		duplicates: duplicates,
		logger:     logger,
	}
}

// Build indexes rows. rows[0] is the header and must have at least the
// schema's column count. Wholly blank data rows are ignored.
func (k *KeyIndexer) Build(rows [][]string) (*Index, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no header row", settlement.ErrRead)
	}
	if len(rows[0]) < k.schema.Columns {
		return nil, fmt.Errorf("%w: header has %d columns, want %d",
			settlement.ErrRead, len(rows[0]), k.schema.Columns)
	}

	ix := NewIndex()
	for i, row := range rows[1:] {
		rowNum := i + 2
		if spreadsheet.IsBlankRow(row) {
			continue
		}
		key, flag, err := k.schema.KeyFromRow(spreadsheet.PadRow(row, k.schema.Columns))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", settlement.ErrRead, rowNum, err)
		}
		if ix.Put(key, flag) {
			if k.duplicates == DuplicateReject {
				return nil, fmt.Errorf("%w: row %d: %s", settlement.ErrDuplicateKey, rowNum, key)
			}
			ix.Duplicates = append(ix.Duplicates, key)
			k.logger.Warn("Duplicate key in reply spreadsheet, keeping last flag",
				zap.Int("row", rowNum),
				zap.String("key", key.String()),
				zap.String("flag", flag))
		}
	}

	k.logger.Debug("Reply spreadsheet indexed",
		zap.String("schema", k.schema.Name),
		zap.Int("rows", len(rows)-1),
		zap.Int("keys", ix.Len()),
		zap.Int("duplicates", len(ix.Duplicates)))

	return ix, nil
}
