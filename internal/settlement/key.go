package settlement

import (
	"fmt"
	"strconv"
	"strings"
)

const keySeparator = "\x1f"

// IdentityKey is the tuple that identifies one transaction across the text
// file and the reply spreadsheet. Field order is defined by a KeySchema.
type IdentityKey []string

// ID returns a string usable as a map key.
func (k IdentityKey) ID() string {
	return strings.Join(k, keySeparator)
}

func (k IdentityKey) String() string {
	return "(" + strings.Join(k, ", ") + ")"
}

// Less orders keys by their first two fields, then by the whole tuple.
func (k IdentityKey) Less(other IdentityKey) bool {
	for i := 0; i < 2 && i < len(k) && i < len(other); i++ {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return k.ID() < other.ID()
}

// KeySchema describes where the identity key fields live in a text line
// (token positions) and in a reply spreadsheet row (column positions).
type KeySchema struct {
	Name string
	// Columns is the minimum number of columns of the reply spreadsheet.
	Columns int
	// TokenCount is the exact number of whitespace tokens of an eligible line.
	TokenCount int
	// TextFields and SheetFields list positions in key order.
	TextFields  []int
	SheetFields []int
	// AmountField and RemarkField index into the key, not the line.
	AmountField int
	RemarkField int
	FlagColumn  int
	// RemarkToken is the token position of the 4-digit remark in a line.
	RemarkToken int
}

// LocalReplySchema keys on (name, card, amount, remark).
var LocalReplySchema = KeySchema{
	Name:        "local",
	Columns:     6,
	TokenCount:  10,
	TextFields:  []int{4, 3, 6, 8},
	SheetFields: []int{0, 1, 2, 3},
	AmountField: 2,
	RemarkField: 3,
	FlagColumn:  5,
	RemarkToken: 8,
}

// OtherReplySchema keys on (name, card, agreement number, amount, remark).
var OtherReplySchema = KeySchema{
	Name:        "other",
	Columns:     11,
	TokenCount:  10,
	TextFields:  []int{4, 3, 7, 6, 8},
	SheetFields: []int{0, 1, 5, 7, 8},
	AmountField: 3,
	RemarkField: 4,
	FlagColumn:  10,
	RemarkToken: 8,
}

// KeyFromTokens builds the key of a text line. ok is false when the line
// does not have exactly TokenCount tokens.
func (s KeySchema) KeyFromTokens(tokens []string) (key IdentityKey, ok bool) {
	if len(tokens) != s.TokenCount {
		return nil, false
	}
	key = make(IdentityKey, len(s.TextFields))
	for i, pos := range s.TextFields {
		v := strings.TrimSpace(tokens[pos])
		if i == s.AmountField {
			v = canonicalMinor(v)
		}
		key[i] = v
	}
	return key, true
}

// KeyFromRow builds the key of a spreadsheet data row and returns the
// row's processing flag. The row must already be padded to Columns.
func (s KeySchema) KeyFromRow(row []string) (IdentityKey, string, error) {
	if len(row) < s.Columns {
		return nil, "", fmt.Errorf("row has %d columns, want %d", len(row), s.Columns)
	}
	key := make(IdentityKey, len(s.SheetFields))
	for i, col := range s.SheetFields {
		v := strings.TrimSpace(row[col])
		if i == s.AmountField {
			amount, err := ParseMajorUnits(v)
			if err != nil {
				return nil, "", fmt.Errorf("column %d: %w", col+1, err)
			}
			v = amount.MinorString()
		}
		key[i] = v
	}
	return key, strings.TrimSpace(row[s.FlagColumn]), nil
}

// Remark returns the remark field of a key built with this schema.
func (s KeySchema) Remark(key IdentityKey) string {
	if s.RemarkField < len(key) {
		return key[s.RemarkField]
	}
	return ""
}

// canonicalMinor strips leading zeros from a digit-only amount token.
// Other tokens are kept verbatim and will simply never match.
func canonicalMinor(v string) string {
	if !IsDigits(v) {
		return v
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return v
	}
	return strconv.FormatInt(n, 10)
}
