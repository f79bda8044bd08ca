package taxengine

import (
	"strings"

	"github.com/angelmondragon/orderdesk-backend/pkg/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero at the cent.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount coerces raw user input into a decimal; empty or non-numeric input is zero.
func ParseAmount(raw string) decimal.Decimal {
	return types.ParseLooseString(raw)
}

// isPendingInput reports input still being typed, e.g. "1." before the cents arrive.
func isPendingInput(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return len(trimmed) > 1 && strings.HasSuffix(trimmed, ".") && strings.Count(trimmed, ".") == 1
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
