package taxengine

import (
	"fmt"
	"math/rand"
	"testing"

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

func baseItem() LineItem {
	return LineItem{
		ID:                "item_1",
		ProductID:         "prod_1",
		ProductName:       "Widget",
		Quantity:          1,
		Price:             dec("100"),
		PriceExcludingTax: dec("100"),
		TaxPercentage:     dec("18"),
	}
}

func TestResolveScenarioA_TaxPercentageEdit(t *testing.T) {
	res := Resolve(baseItem(), Edit{Field: FieldTaxPercentage, Value: "18"})

	assert.Equal(t, RuleTaxFromPercentage, res.Rule)
	assertAmount(t, "18.00", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "118.00", res.Item.PriceIncludingTax, "priceIncludingTax")
	assertAmount(t, "118.00", res.Item.TotalPrice, "totalPrice")
}

func TestResolveScenarioB_QuantityOnlyTouchesTotal(t *testing.T) {
	item := Resolve(baseItem(), Edit{Field: FieldTaxPercentage, Value: "18"}).Item

	res := Resolve(item, Edit{Field: FieldQuantity, Value: "3"})

	assert.Equal(t, RuleQuantity, res.Rule)
	assert.Equal(t, 3, res.Item.Quantity)
	assertAmount(t, "354.00", res.Item.TotalPrice, "totalPrice")
	assert.True(t, item.PriceExcludingTax.Equal(res.Item.PriceExcludingTax))
	assert.True(t, item.PriceIncludingTax.Equal(res.Item.PriceIncludingTax))
	assert.True(t, item.TaxPercentage.Equal(res.Item.TaxPercentage))
	assert.True(t, item.TaxAmount.Equal(res.Item.TaxAmount))
}

func TestResolveScenarioC_InfersPercentageFromIncluding(t *testing.T) {
	item := LineItem{
		Quantity:          1,
		PriceExcludingTax: dec("100"),
		TaxPercentage:     decimal.Zero,
	}

	res := Resolve(item, Edit{Field: FieldPriceIncludingTax, Value: "118"})

	assert.Equal(t, RulePercentageFromIncluding, res.Rule)
	assertAmount(t, "18", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "18", res.Item.TaxPercentage, "taxPercentage")
	assertAmount(t, "118", res.Item.TotalPrice, "totalPrice")
}

func TestResolveExcludingPriceWithPercentage(t *testing.T) {
	res := Resolve(baseItem(), Edit{Field: FieldPriceExcludingTax, Value: "250"})

	assert.Equal(t, RuleTaxFromExcluding, res.Rule)
	assertAmount(t, "45.00", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "295.00", res.Item.PriceIncludingTax, "priceIncludingTax")
}

func TestResolveIncludingPriceBackComputesExcluding(t *testing.T) {
	res := Resolve(baseItem(), Edit{Field: FieldPriceIncludingTax, Value: "100"})

	assert.Equal(t, RuleExcludingFromIncluding, res.Rule)
	// 100 / 1.18 = 84.745... rounds to 84.75
	assertAmount(t, "84.75", res.Item.PriceExcludingTax, "priceExcludingTax")
	assertAmount(t, "15.25", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "100", res.Item.TotalPrice, "totalPrice")
}

func TestResolveExcludingPriceInfersPercentageWhenZero(t *testing.T) {
	item := LineItem{Quantity: 2, PriceIncludingTax: dec("117")}

	res := Resolve(item, Edit{Field: FieldPriceExcludingTax, Value: "100"})

	assert.Equal(t, RulePercentageFromExcluding, res.Rule)
	assertAmount(t, "17", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "17", res.Item.TaxPercentage, "taxPercentage")
	assertAmount(t, "234", res.Item.TotalPrice, "totalPrice")
}

func TestResolveExcludingZeroYieldsZeroPercentage(t *testing.T) {
	item := LineItem{Quantity: 1, PriceIncludingTax: dec("50")}

	res := Resolve(item, Edit{Field: FieldPriceExcludingTax, Value: "0"})

	assert.Equal(t, RulePercentageFromExcluding, res.Rule)
	assertAmount(t, "0", res.Item.TaxPercentage, "taxPercentage")
	assertAmount(t, "50", res.Item.TaxAmount, "taxAmount")
}

func TestResolvePercentageWithoutBasePriceInfersNothing(t *testing.T) {
	item := LineItem{Quantity: 1, Price: dec("40")}

	res := Resolve(item, Edit{Field: FieldTaxPercentage, Value: "17"})

	assert.Equal(t, RuleTotalOnly, res.Rule)
	assertAmount(t, "0", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "40", res.Item.TotalPrice, "totalPrice")
}

func TestResolveAdditionalChargesOnlyRecomputeTotal(t *testing.T) {
	item := Resolve(baseItem(), Edit{Field: FieldTaxPercentage, Value: "18"}).Item
	item.Quantity = 2

	for _, tc := range []struct {
		field Field
		value string
		total string
	}{
		{FieldExtraTax, "2", "240.00"},
		{FieldFurtherTax, "3", "246.00"},
		{FieldFedPayableTax, "1.5", "249.00"},
		{FieldDiscount, "10", "229.00"},
	} {
		res := Resolve(item, Edit{Field: tc.field, Value: tc.value})
		assert.Equal(t, RuleTotalOnly, res.Rule, tc.field)
		assertAmount(t, tc.total, res.Item.TotalPrice, string(tc.field))
		assert.True(t, item.TaxAmount.Equal(res.Item.TaxAmount))
		item = res.Item
	}
}

func TestResolveFallsBackToBasePriceWhenNoIncludingPrice(t *testing.T) {
	item := LineItem{Quantity: 4, Price: dec("12.5"), DisableAutoTaxCalculations: true}

	res := Resolve(item, Edit{Field: FieldExtraTax, Value: "0.5"})

	assertAmount(t, "52", res.Item.TotalPrice, "totalPrice")
}

func TestResolveDisableAutoLeavesSiblingsAlone(t *testing.T) {
	item := Resolve(baseItem(), Edit{Field: FieldTaxPercentage, Value: "18"}).Item
	item.DisableAutoTaxCalculations = true

	res := Resolve(item, Edit{Field: FieldTaxPercentage, Value: "25"})

	assert.Equal(t, RuleManual, res.Rule)
	assertAmount(t, "25", res.Item.TaxPercentage, "taxPercentage")
	assertAmount(t, "18", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "118", res.Item.PriceIncludingTax, "priceIncludingTax")
	assertAmount(t, "118", res.Item.TotalPrice, "totalPrice")

	res = Resolve(item, Edit{Field: FieldPriceIncludingTax, Value: "200"})
	assertAmount(t, "100", res.Item.PriceExcludingTax, "priceExcludingTax")
	assertAmount(t, "200", res.Item.TotalPrice, "totalPrice")
}

func TestResolveTrailingDecimalDefersRecompute(t *testing.T) {
	item := Resolve(baseItem(), Edit{Field: FieldTaxPercentage, Value: "18"}).Item

	res := Resolve(item, Edit{Field: FieldPriceExcludingTax, Value: "150."})

	assert.True(t, res.Deferred)
	assert.Equal(t, RuleDeferred, res.Rule)
	assertAmount(t, "150", res.Item.PriceExcludingTax, "priceExcludingTax")
	assertAmount(t, "18", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "118", res.Item.TotalPrice, "totalPrice")
}

func TestResolveCoercesGarbageToZero(t *testing.T) {
	res := Resolve(baseItem(), Edit{Field: FieldDiscount, Value: "abc"})
	assertAmount(t, "0", res.Item.Discount, "discount")

	res = Resolve(baseItem(), Edit{Field: FieldQuantity, Value: ""})
	assert.Equal(t, 0, res.Item.Quantity)
	assertAmount(t, "0", res.Item.TotalPrice, "totalPrice")
}

func TestResolveRoundsStoredInput(t *testing.T) {
	res := Resolve(baseItem(), Edit{Field: FieldPriceExcludingTax, Value: "10.005"})
	assertAmount(t, "10.01", res.Item.PriceExcludingTax, "priceExcludingTax")
	assertAmount(t, "1.80", res.Item.TaxAmount, "taxAmount")
	assertAmount(t, "11.81", res.Item.PriceIncludingTax, "priceIncludingTax")
}

func TestResolveWeightBasedItem(t *testing.T) {
	item := LineItem{
		IsWeightBased: true,
		WeightUnit:    WeightUnitKilogram,
		Quantity:      1,
		Price:         PricePerGram(dec("1500"), "kg"),
	}

	res := Resolve(item, Edit{Field: FieldWeightQuantity, Value: "2.5"})

	assert.Equal(t, RuleWeight, res.Rule)
	assert.Equal(t, 1, res.Item.Quantity)
	assertAmount(t, "2500", res.Item.WeightQuantity, "weightQuantity")
	assertAmount(t, "3750", res.Item.TotalPrice, "totalPrice")

	ignored := Resolve(res.Item, Edit{Field: FieldQuantity, Value: "7"})
	assert.Equal(t, RuleIgnored, ignored.Rule)
	assert.Equal(t, 1, ignored.Item.Quantity)
}

func TestResolveWeightFieldIgnoredOnUnitItems(t *testing.T) {
	res := Resolve(baseItem(), Edit{Field: FieldWeightQuantity, Value: "500"})
	assert.Equal(t, RuleIgnored, res.Rule)
	assert.True(t, res.Item.WeightQuantity.IsZero())
}

func TestResolveTextAndToggleFields(t *testing.T) {
	res := Resolve(baseItem(), Edit{Field: FieldHSCode, Value: "8471.30"})
	assert.Equal(t, RuleText, res.Rule)
	assert.Equal(t, "8471.30", res.Item.HSCode)

	res = Resolve(baseItem(), Edit{Field: FieldDisableAuto, Value: "true"})
	assert.Equal(t, RuleToggle, res.Rule)
	assert.True(t, res.Item.DisableAutoTaxCalculations)

	res = Resolve(baseItem(), Edit{Field: Field("color"), Value: "red"})
	assert.Equal(t, RuleIgnored, res.Rule)
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	item := baseItem()
	item.Addons = []Addon{{AddonID: "a1", Price: dec("5"), Quantity: 1}}

	res := Resolve(item, Edit{Field: FieldPriceExcludingTax, Value: "300"})
	res.Item.Addons[0].Quantity = 9

	assertAmount(t, "100", item.PriceExcludingTax, "priceExcludingTax")
	assert.Equal(t, 1, item.Addons[0].Quantity)
}

func TestApplyRunsEditsInOrder(t *testing.T) {
	item := Apply(LineItem{Quantity: 1},
		Edit{Field: FieldPriceExcludingTax, Value: "200"},
		Edit{Field: FieldTaxPercentage, Value: "17"},
		Edit{Field: FieldQuantity, Value: "2"},
	)
	assertAmount(t, "34", item.TaxAmount, "taxAmount")
	assertAmount(t, "234", item.PriceIncludingTax, "priceIncludingTax")
	assertAmount(t, "468", item.TotalPrice, "totalPrice")
}

func randomAmount(r *rand.Rand) string {
	return fmt.Sprintf("%d.%02d", r.Intn(10000)+1, r.Intn(100))
}

func randomPercent(r *rand.Rand) string {
	return fmt.Sprintf("%d.%d", r.Intn(40)+1, r.Intn(10))
}

func TestPropertyTaxTriangleConsistency(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	fields := []Field{FieldPriceExcludingTax, FieldPriceIncludingTax, FieldTaxPercentage}

	for i := 0; i < 2000; i++ {
		item := Apply(LineItem{Quantity: r.Intn(5) + 1},
			Edit{Field: FieldPriceExcludingTax, Value: randomAmount(r)},
			Edit{Field: FieldTaxPercentage, Value: randomPercent(r)},
		)
		field := fields[r.Intn(len(fields))]
		value := randomAmount(r)
		if field == FieldTaxPercentage {
			value = randomPercent(r)
		}

		got := Resolve(item, Edit{Field: field, Value: value}).Item

		require.Truef(t, got.PriceIncludingTax.Equal(Round2(got.PriceExcludingTax.Add(got.TaxAmount))),
			"triangle broken after %s=%s: excl=%s tax=%s incl=%s",
			field, value, got.PriceExcludingTax, got.TaxAmount, got.PriceIncludingTax)
	}
}

func TestPropertyIdempotence(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	fields := []Field{
		FieldPriceExcludingTax, FieldPriceIncludingTax, FieldTaxPercentage,
		FieldQuantity, FieldExtraTax, FieldDiscount,
	}

	for i := 0; i < 2000; i++ {
		item := Apply(LineItem{Quantity: 1},
			Edit{Field: FieldPriceExcludingTax, Value: randomAmount(r)},
			Edit{Field: FieldTaxPercentage, Value: randomPercent(r)},
		)
		field := fields[r.Intn(len(fields))]
		value := randomAmount(r)
		if field == FieldQuantity {
			value = fmt.Sprint(r.Intn(9) + 1)
		}
		edit := Edit{Field: field, Value: value}

		once := Resolve(item, edit).Item
		twice := Resolve(once, edit).Item

		require.Equal(t, once, twice, "edit %s=%s is not idempotent", field, value)
	}
}

func TestPropertyQuantityIsolation(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for i := 0; i < 500; i++ {
		item := Apply(LineItem{Quantity: 1},
			Edit{Field: FieldPriceIncludingTax, Value: randomAmount(r)},
			Edit{Field: FieldTaxPercentage, Value: randomPercent(r)},
		)
		got := Resolve(item, Edit{Field: FieldQuantity, Value: fmt.Sprint(r.Intn(50) + 1)}).Item

		require.True(t, item.PriceExcludingTax.Equal(got.PriceExcludingTax))
		require.True(t, item.PriceIncludingTax.Equal(got.PriceIncludingTax))
		require.True(t, item.TaxPercentage.Equal(got.TaxPercentage))
		require.True(t, item.TaxAmount.Equal(got.TaxAmount))
	}
}
