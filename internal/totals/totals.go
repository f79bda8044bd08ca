package totals

import (
	"strings"

	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DiscountType selects how OrderLevel.DiscountAmount is interpreted.
type DiscountType string

const (
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

// ParseDiscountType maps free-form input onto a DiscountType; anything other
// than a percentage is flat.
func ParseDiscountType(raw string) DiscountType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percentage", "percent", "%":
		return DiscountPercentage
	}
	return DiscountFlat
}

// OrderLevel holds the order-wide adjustments applied on top of the line items.
type OrderLevel struct {
	DiscountAmount       decimal.Decimal `json:"discountAmount"`
	DiscountType         DiscountType    `json:"discountType"`
	ShippingAmount       decimal.Decimal `json:"shippingAmount"`
	TaxRate              decimal.Decimal `json:"taxRate"`
	PointsToRedeem       int64           `json:"pointsToRedeem,omitempty"`
	PointsDiscountAmount decimal.Decimal `json:"pointsDiscountAmount"`
	Currency             string          `json:"currency,omitempty"`
}

// Totals is the derived order summary.
type Totals struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	TaxAmount            decimal.Decimal `json:"taxAmount"`
	DiscountAmount       decimal.Decimal `json:"discountAmount"`
	PointsDiscountAmount decimal.Decimal `json:"pointsDiscountAmount"`
	ShippingAmount       decimal.Decimal `json:"shippingAmount"`
	Total                decimal.Decimal `json:"total"`
	Currency             string          `json:"currency,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Subtotal sums line totals plus addon costs, where addons are charged once per unit of quantity.
func Subtotal(items []taxengine.LineItem) decimal.Decimal {
	return lo.Reduce(items, func(acc decimal.Decimal, item taxengine.LineItem, _ int) decimal.Decimal {
		addons := item.AddonsCost().Mul(decimal.NewFromInt(int64(item.Quantity)))
		return acc.Add(item.TotalPrice).Add(addons)
	}, decimal.Zero)
}

// Discount resolves the order discount against subtotal.
func Discount(subtotal decimal.Decimal, lvl OrderLevel) decimal.Decimal {
	if lvl.DiscountType == DiscountPercentage {
		return subtotal.Mul(lvl.DiscountAmount).Div(hundred)
	}
	return lvl.DiscountAmount
}

// Aggregate computes the order totals. The order-level TaxRate is charged on
// the discounted subtotal in addition to any tax already embedded in line totals.
// Total is clamped at zero; the other figures are reported as computed.
func Aggregate(items []taxengine.LineItem, lvl OrderLevel) Totals {
	subtotal := Subtotal(items)
	discount := Discount(subtotal, lvl)

	taxable := subtotal.Sub(discount).Sub(lvl.PointsDiscountAmount)
	tax := taxable.Mul(lvl.TaxRate).Div(hundred)

	total := subtotal.
		Add(tax).
		Add(lvl.ShippingAmount).
		Sub(discount).
		Sub(lvl.PointsDiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:             taxengine.Round2(subtotal),
		TaxAmount:            taxengine.Round2(tax),
		DiscountAmount:       taxengine.Round2(discount),
		PointsDiscountAmount: taxengine.Round2(lvl.PointsDiscountAmount),
		ShippingAmount:       taxengine.Round2(lvl.ShippingAmount),
		Total:                taxengine.Round2(total),
		Currency:             lvl.Currency,
	}
}
