package fbr

import (
	"strings"

	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// BuildPreview projects the order onto the invoice layout the tax authority
// expects. It never mutates items and the result is not persisted on the order.
func BuildPreview(items []taxengine.LineItem, header OrderHeader, seller SellerInfo) Preview {
	sorted := SortItems(items)
	lines := make([]Line, 0, len(sorted))
	for _, item := range sorted {
		lines = append(lines, buildLine(item, header))
	}
	return Preview{
		Source:  SourceLocal,
		Header:  header,
		Seller:  seller,
		Items:   lines,
		Summary: Summarize(lines),
	}
}

// UnitExcludingTax prefers the stored value, then back-computes it from the
// tax-inclusive price and rate, then falls back to the raw price.
func UnitExcludingTax(item taxengine.LineItem) decimal.Decimal {
	if item.PriceExcludingTax.IsPositive() {
		return item.PriceExcludingTax
	}
	if item.PriceIncludingTax.IsPositive() && item.TaxPercentage.IsPositive() {
		return taxengine.Round2(item.PriceIncludingTax.Div(one.Add(item.TaxPercentage.Div(hundred))))
	}
	return item.Price
}

// UnitSalesTax prefers the stored tax, then derives it from the rate, then
// from the gap between the inclusive and exclusive prices.
func UnitSalesTax(item taxengine.LineItem, unitExcl decimal.Decimal) decimal.Decimal {
	if item.TaxAmount.IsPositive() {
		return item.TaxAmount
	}
	if item.TaxPercentage.IsPositive() {
		return taxengine.Round2(unitExcl.Mul(item.TaxPercentage).Div(hundred))
	}
	if item.PriceIncludingTax.IsPositive() {
		if diff := item.PriceIncludingTax.Sub(unitExcl); diff.IsPositive() {
			return taxengine.Round2(diff)
		}
	}
	return decimal.Zero
}

func buildLine(item taxengine.LineItem, header OrderHeader) Line {
	qty := item.Multiplier()
	unitExcl := UnitExcludingTax(item)
	unitTax := UnitSalesTax(item, unitExcl)

	times := func(unit decimal.Decimal) decimal.Decimal {
		return taxengine.Round2(unit.Mul(qty))
	}

	line := Line{
		ItemID:                          item.ID,
		SerialNumber:                    item.SerialNumber,
		HSCode:                          NormalizeHSCode(item.HSCode),
		ProductDescription:              description(item),
		Rate:                            rate(item.TaxPercentage, unitExcl, unitTax),
		UOM:                             firstNonEmpty(item.UOM, header.DefaultUOM),
		Quantity:                        qty,
		UnitPriceExcludingST:            unitExcl,
		UnitSalesTax:                    unitTax,
		ValueSalesExcludingST:           times(unitExcl),
		SalesTaxApplicable:              times(unitTax),
		SalesTaxWithheldAtSource:        decimal.Zero,
		ExtraTax:                        times(item.ExtraTax),
		FurtherTax:                      times(item.FurtherTax),
		FedPayable:                      times(item.FedPayableTax),
		Discount:                        times(item.Discount),
		FixedNotifiedValueOrRetailPrice: taxengine.ParseAmount(item.FixedNotifiedValueOrRetailPrice),
		SaleType:                        firstNonEmpty(item.SaleType, header.DefaultSaleType),
		SROScheduleNo:                   item.SROScheduleNumber,
		SROItemSerialNo:                 item.ItemSerialNumber,
	}
	if item.IsWeightBased {
		unit := taxengine.NormalizeWeightUnit(string(item.WeightUnit))
		line.DisplayWeight = taxengine.FromGrams(item.WeightQuantity, unit).String() + " " + string(unit)
	}
	line.TotalValues = line.ValueSalesExcludingST.
		Add(line.SalesTaxApplicable).
		Add(line.ExtraTax).
		Add(line.FurtherTax).
		Add(line.FedPayable).
		Sub(line.Discount)
	return line
}

// Summarize totals the monetary columns of lines.
func Summarize(lines []Line) Summary {
	s := Summary{
		ValueSalesExcludingST: decimal.Zero,
		SalesTax:              decimal.Zero,
		ExtraTax:              decimal.Zero,
		FurtherTax:            decimal.Zero,
		FedPayable:            decimal.Zero,
		Discount:              decimal.Zero,
		TotalValues:           decimal.Zero,
	}
	for _, l := range lines {
		s.ValueSalesExcludingST = s.ValueSalesExcludingST.Add(l.ValueSalesExcludingST)
		s.SalesTax = s.SalesTax.Add(l.SalesTaxApplicable)
		s.ExtraTax = s.ExtraTax.Add(l.ExtraTax)
		s.FurtherTax = s.FurtherTax.Add(l.FurtherTax)
		s.FedPayable = s.FedPayable.Add(l.FedPayable)
		s.Discount = s.Discount.Add(l.Discount)
		s.TotalValues = s.TotalValues.Add(l.TotalValues)
	}
	return s
}

func rate(pct, unitExcl, unitTax decimal.Decimal) string {
	if !pct.IsPositive() && unitExcl.IsPositive() && unitTax.IsPositive() {
		pct = unitTax.Div(unitExcl).Mul(hundred)
	}
	return taxengine.Round2(pct).String() + "%"
}

func description(item taxengine.LineItem) string {
	name := firstNonEmpty(item.ProductDescription, item.ProductName)
	if item.VariantTitle != "" && item.ProductDescription == "" {
		name += " - " + item.VariantTitle
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
