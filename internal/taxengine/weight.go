package taxengine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// WeightUnit is the display unit a weight-based item was entered in.
type WeightUnit string

const (
	WeightUnitGram     WeightUnit = "g"
	WeightUnitKilogram WeightUnit = "kg"
)

var gramsPerKilogram = decimal.NewFromInt(1000)

// NormalizeWeightUnit maps free-form unit labels onto g or kg. Unknown labels are grams.
func NormalizeWeightUnit(raw string) WeightUnit {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "kg", "kgs", "kilogram", "kilograms", "kilo":
		return WeightUnitKilogram
	}
	return WeightUnitGram
}

// ToGrams converts a weight entered in unit into grams.
func ToGrams(value decimal.Decimal, unit WeightUnit) decimal.Decimal {
	if NormalizeWeightUnit(string(unit)) == WeightUnitKilogram {
		return value.Mul(gramsPerKilogram).Round(3)
	}
	return value.Round(3)
}

// FromGrams converts grams back into the display unit.
func FromGrams(grams decimal.Decimal, unit WeightUnit) decimal.Decimal {
	if NormalizeWeightUnit(string(unit)) == WeightUnitKilogram {
		return grams.Div(gramsPerKilogram)
	}
	return grams
}

// PricePerGram derives a per-gram price from a catalog price expressed per
// baseWeightUnit. The result is left unrounded; rounding happens on line totals.
func PricePerGram(pricePerUnit decimal.Decimal, baseWeightUnit string) decimal.Decimal {
	if NormalizeWeightUnit(baseWeightUnit) == WeightUnitKilogram {
		return pricePerUnit.Div(gramsPerKilogram)
	}
	return pricePerUnit
}
