package settlement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative money value held in minor units (分).
type Amount int64

var hundred = decimal.NewFromInt(100)

// ParseMinorUnits reads the raw amount field of a settlement line.
// Anything that is not purely ASCII digits maps to zero.
func ParseMinorUnits(s string) Amount {
	s = strings.TrimSpace(s)
	if !IsDigits(s) {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return Amount(n)
}

// ParseMajorUnits converts a spreadsheet amount such as "1500.00" into minor
// units. The value is scaled by 100 and rounded half away from zero.
func ParseMajorUnits(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor := d.Mul(hundred).Round(0)
	if !minor.IsInteger() || minor.Abs().GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, fmt.Errorf("amount out of range: %s", s)
	}
	return Amount(minor.IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// String renders the amount with exactly two fraction digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// MinorString is the canonical join-key form: the integer minor-unit value.
func (a Amount) MinorString() string {
	return strconv.FormatInt(int64(a), 10)
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
