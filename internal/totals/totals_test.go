package totals

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: expected %s got %s", field, want, got.String())
}

func sampleItems() []taxengine.LineItem {
	return []taxengine.LineItem{
		{ID: "a", Quantity: 2, TotalPrice: dec("236")},
		{
			ID:         "b",
			Quantity:   3,
			TotalPrice: dec("30"),
			Addons: []taxengine.Addon{
				{AddonID: "x", Price: dec("1.5"), Quantity: 2},
				{AddonID: "y", Price: dec("0.25"), Quantity: 4},
			},
		},
	}
}

func TestSubtotalIncludesAddonsPerUnit(t *testing.T) {
	// 236 + 30 + (3 + 1) * 3
	assertAmount(t, "278", Subtotal(sampleItems()), "subtotal")
	assertAmount(t, "0", Subtotal(nil), "empty")
}

func TestAggregateFlatDiscount(t *testing.T) {
	got := Aggregate(sampleItems(), OrderLevel{
		DiscountAmount: dec("28"),
		DiscountType:   DiscountFlat,
		ShippingAmount: dec("15"),
		Currency:       "PKR",
	})

	assertAmount(t, "278", got.Subtotal, "subtotal")
	assertAmount(t, "28", got.DiscountAmount, "discount")
	assertAmount(t, "0", got.TaxAmount, "tax")
	assertAmount(t, "265", got.Total, "total")
	assert.Equal(t, "PKR", got.Currency)
}

func TestAggregatePercentageDiscountWithOrderTaxAndPoints(t *testing.T) {
	got := Aggregate(sampleItems(), OrderLevel{
		DiscountAmount:       dec("10"),
		DiscountType:         DiscountPercentage,
		TaxRate:              dec("5"),
		PointsDiscountAmount: dec("20.2"),
		ShippingAmount:       dec("5"),
	})

	// discount 27.8, taxable 278 - 27.8 - 20.2 = 230, tax 11.5
	assertAmount(t, "27.8", got.DiscountAmount, "discount")
	assertAmount(t, "11.5", got.TaxAmount, "tax")
	assertAmount(t, "20.2", got.PointsDiscountAmount, "points")
	assertAmount(t, "246.5", got.Total, "total")
}

func TestAggregateClampsTotalAtZero(t *testing.T) {
	got := Aggregate(sampleItems(), OrderLevel{
		DiscountAmount: dec("500"),
		DiscountType:   DiscountFlat,
		TaxRate:        dec("10"),
	})

	assertAmount(t, "0", got.Total, "total")
	assertAmount(t, "-22.2", got.TaxAmount, "tax")
}

func TestParseDiscountType(t *testing.T) {
	assert.Equal(t, DiscountPercentage, ParseDiscountType(" Percentage "))
	assert.Equal(t, DiscountPercentage, ParseDiscountType("%"))
	assert.Equal(t, DiscountFlat, ParseDiscountType("flat"))
	assert.Equal(t, DiscountFlat, ParseDiscountType(""))
}

func TestPropertyTotalNeverNegative(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	amount := func(max int) decimal.Decimal {
		return dec(fmt.Sprintf("%d.%02d", r.Intn(max), r.Intn(100)))
	}
	types := []DiscountType{DiscountFlat, DiscountPercentage}

	for i := 0; i < 2000; i++ {
		items := make([]taxengine.LineItem, r.Intn(4))
		for j := range items {
			items[j] = taxengine.LineItem{Quantity: r.Intn(5), TotalPrice: amount(1000)}
		}
		lvl := OrderLevel{
			DiscountAmount:       amount(3000),
			DiscountType:         types[r.Intn(2)],
			ShippingAmount:       amount(50),
			TaxRate:              amount(30),
			PointsDiscountAmount: amount(500),
		}

		got := Aggregate(items, lvl)
		require.Falsef(t, got.Total.IsNegative(), "negative total %s for %+v", got.Total, lvl)
	}
}
