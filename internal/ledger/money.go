// Package ledger recomputes a driver's money state from ride history.
//
// The package is pure: it never touches storage. Callers load rides,
// filter and order them, and hand them to Fold.
package ledger

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// roundingBias compensates binary representation error (0.1+0.2 style
// artifacts) before rounding at the cent boundary.
const roundingBias = 2.220446049250313e-16

var (
	nonMoneyChars  = regexp.MustCompile(`[^0-9,.\-]`)
	leadingDecimal = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)`)
)

// Round2 rounds x to two decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round((x+roundingBias)*100) / 100
}

// Normalize converts a stored monetary value to an amount. Malformed or
// missing values become 0; it never fails, so a single corrupt ride
// cannot abort a reconciliation pass.
func Normalize(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case json.Number:
		// Out-of-range literals parse to ±Inf or 0 and are read as such.
		if f, err := v.Float64(); err == nil || errors.Is(err, strconv.ErrRange) {
			return finite(f)
		}
		return parseMoneyString(v.String())
	case decimal.Decimal:
		return finite(v.InexactFloat64())
	case string:
		return parseMoneyString(v)
	default:
		return 0
	}
}

// parseMoneyString reads amounts such as "R$ 25,90" or "1500.00".
// Only the first comma is treated as a decimal separator; the longest
// leading decimal literal is parsed and the rest ignored.
func parseMoneyString(s string) float64 {
	cleaned := nonMoneyChars.ReplaceAllString(s, "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	literal := leadingDecimal.FindString(cleaned)
	literal = strings.TrimSuffix(literal, ".")
	if literal == "" || literal == "-" {
		return 0
	}

	d, err := decimal.NewFromString(literal)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
