package taxengine

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWeightUnit(t *testing.T) {
	cases := map[string]WeightUnit{
		"kg":        WeightUnitKilogram,
		" KG ":      WeightUnitKilogram,
		"kilograms": WeightUnitKilogram,
		"g":         WeightUnitGram,
		"grams":     WeightUnitGram,
		"":          WeightUnitGram,
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeWeightUnit(raw), raw)
	}
}

func TestToGramsAndBack(t *testing.T) {
	assertAmount(t, "1250", ToGrams(dec("1.25"), WeightUnitKilogram), "kg")
	assertAmount(t, "0.001", ToGrams(dec("0.0000012"), WeightUnitKilogram), "rounded")
	assertAmount(t, "300", ToGrams(dec("300"), WeightUnitGram), "g")
	assertAmount(t, "1.25", FromGrams(dec("1250"), WeightUnitKilogram), "back")
	assertAmount(t, "1250", FromGrams(dec("1250"), WeightUnitGram), "grams")
}

func TestPricePerGram(t *testing.T) {
	assertAmount(t, "0.0125", PricePerGram(dec("12.5"), "kg"), "kg")
	assertAmount(t, "0.4", PricePerGram(dec("0.4"), "g"), "g")
}

func TestLineTotalWeightBasedUsesGrams(t *testing.T) {
	item := LineItem{
		IsWeightBased:  true,
		Quantity:       1,
		WeightQuantity: dec("750"),
		Price:          PricePerGram(dec("2000"), "kg"),
	}
	assertAmount(t, "1500", LineTotal(item), "totalPrice")
}

func TestRecomputeTotalPinsWeightQuantity(t *testing.T) {
	item := LineItem{
		IsWeightBased:  true,
		Quantity:       4,
		WeightQuantity: dec("100"),
		Price:          dec("0.25"),
	}
	out := RecomputeTotal(item)
	assert.Equal(t, 1, out.Quantity)
	assertAmount(t, "25", out.TotalPrice, "totalPrice")
	assert.Equal(t, 4, item.Quantity)
}

func TestNewItemID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewItemID(now)
	assert.Regexp(t, regexp.MustCompile(`^item_1700000000123_[0-9a-f]{9}$`), id)
	assert.NotEqual(t, id, NewItemID(now))
}

func TestParseAmount(t *testing.T) {
	assertAmount(t, "1234.5", ParseAmount(" 1,234.5 "), "commas")
	assertAmount(t, "0", ParseAmount("-"), "dash")
	assertAmount(t, "0", ParseAmount("twelve"), "garbage")
	assertAmount(t, "12", ParseAmount("12."), "trailing dot")
}

func TestIsPendingInput(t *testing.T) {
	assert.True(t, isPendingInput("1."))
	assert.True(t, isPendingInput("120."))
	assert.False(t, isPendingInput("."))
	assert.False(t, isPendingInput("1.5"))
	assert.False(t, isPendingInput("1.5."))
	assert.False(t, isPendingInput("15"))
}
