package dto

import (
	"fmt"
	"strconv"
)

// Money is a non-negative currency amount stored as integer minor units
// (paise) so range checks and comparisons never touch floating point.
// FracDigits records how many fractional digits the source text carried
// (0, 1 or 2) so the amount formats the way it was read off the receipt.
type Money struct {
	MinorUnits int64
	FracDigits int
}

func (m Money) String() string {
	units := m.MinorUnits / 100
	cents := m.MinorUnits % 100

	switch m.FracDigits {
	case 0:
		return strconv.FormatInt(units, 10)
	case 1:
		return fmt.Sprintf("%d.%d", units, cents/10)
	default:
		return fmt.Sprintf("%d.%02d", units, cents)
	}
}

// MarshalJSON renders the amount as a decimal string, e.g. "450.00".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}
