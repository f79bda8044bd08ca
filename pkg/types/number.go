package types

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Money travels as JSON numbers on both sides of the API.
	decimal.MarshalJSONWithoutQuotes = true
}

// FlexDecimal decodes numbers that the upstream API may send as JSON numbers,
// numeric strings, empty strings or null. Anything unparsable becomes zero.
type FlexDecimal struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	f.Decimal = parseLoose(data)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexDecimal) MarshalJSON() ([]byte, error) {
	return f.Decimal.MarshalJSON()
}

// NewFlexDecimal wraps a decimal value.
func NewFlexDecimal(d decimal.Decimal) FlexDecimal {
	return FlexDecimal{Decimal: d}
}

// FlexInt is the integer counterpart of FlexDecimal; fractional input is truncated.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt(parseLoose(data).IntPart())
	return nil
}

// Int returns the value as an int.
func (f FlexInt) Int() int {
	return int(f)
}

// FlexBool accepts true/false, "true"/"false", 1/0 and null.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.ToLower(strings.Trim(strings.TrimSpace(string(data)), `"`))
	switch raw {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// ParseLooseString converts a raw textual amount into a decimal, treating
// empty and non-numeric input as zero.
func ParseLooseString(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" || raw == "-" || raw == "." {
		return decimal.Zero
	}
	raw = strings.TrimSuffix(raw, ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseLoose(data []byte) decimal.Decimal {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero
	}
	return ParseLooseString(strings.Trim(string(trimmed), `"`))
}
