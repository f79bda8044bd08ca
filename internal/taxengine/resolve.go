package taxengine

import (
	"github.com/shopspring/decimal"
)

// Edit is a single user mutation: the field that changed and its raw input.
type Edit struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// Result is the outcome of resolving an Edit against a line item.
type Result struct {
	Item     LineItem `json:"item"`
	Rule     Rule     `json:"rule"`
	Deferred bool     `json:"deferred"`
}

// Resolve applies edit to item and recomputes the dependent tax fields and the
// line total. It never fails: unknown fields leave the item untouched and
// unparsable numbers are treated as zero.
func Resolve(item LineItem, edit Edit) Result {
	out := item.Clone()

	switch {
	case edit.Field.IsText():
		*out.text(edit.Field) = edit.Value
		return Result{Item: out, Rule: RuleText}
	case edit.Field == FieldDisableAuto:
		out.DisableAutoTaxCalculations = parseBool(edit.Value)
		return Result{Item: out, Rule: RuleToggle}
	case !edit.Field.IsNumeric():
		return Result{Item: out, Rule: RuleIgnored}
	}

	value := ParseAmount(edit.Value)
	rule := RuleTotalOnly

	switch edit.Field {
	case FieldQuantity:
		if out.IsWeightBased {
			return Result{Item: out, Rule: RuleIgnored}
		}
		out.Quantity = int(value.IntPart())
		rule = RuleQuantity
	case FieldWeightQuantity:
		if !out.IsWeightBased {
			return Result{Item: out, Rule: RuleIgnored}
		}
		out.WeightQuantity = ToGrams(value, out.WeightUnit)
		out.Quantity = 1
		rule = RuleWeight
	default:
		*out.amount(edit.Field) = Round2(value)
	}

	if isPendingInput(edit.Value) {
		return Result{Item: out, Rule: RuleDeferred, Deferred: true}
	}

	if rule == RuleTotalOnly {
		if out.DisableAutoTaxCalculations {
			rule = RuleManual
		} else {
			rule = infer(&out, edit.Field)
		}
	}

	out.TotalPrice = LineTotal(out)
	return Result{Item: out, Rule: rule}
}

// infer derives sibling tax fields after field changed. Only the three fields of
// the tax triangle trigger inference.
func infer(item *LineItem, field Field) Rule {
	excl := item.PriceExcludingTax
	incl := item.PriceIncludingTax
	pct := item.TaxPercentage

	switch field {
	case FieldTaxPercentage:
		if excl.IsPositive() {
			applyFromExcluding(item)
			return RuleTaxFromPercentage
		}
	case FieldPriceExcludingTax:
		if pct.IsPositive() {
			applyFromExcluding(item)
			return RuleTaxFromExcluding
		}
		if pct.IsZero() && incl.IsPositive() {
			inferPercentage(item)
			return RulePercentageFromExcluding
		}
	case FieldPriceIncludingTax:
		if pct.IsPositive() {
			divisor := decimal.NewFromInt(1).Add(pct.Div(hundred))
			item.PriceExcludingTax = Round2(incl.Div(divisor))
			item.TaxAmount = Round2(incl.Sub(item.PriceExcludingTax))
			return RuleExcludingFromIncluding
		}
		if pct.IsZero() && excl.IsPositive() {
			inferPercentage(item)
			return RulePercentageFromIncluding
		}
	}
	return RuleTotalOnly
}

func applyFromExcluding(item *LineItem) {
	item.TaxAmount = Round2(item.PriceExcludingTax.Mul(item.TaxPercentage).Div(hundred))
	item.PriceIncludingTax = Round2(item.PriceExcludingTax.Add(item.TaxAmount))
}

func inferPercentage(item *LineItem) {
	item.TaxAmount = Round2(item.PriceIncludingTax.Sub(item.PriceExcludingTax))
	if item.PriceExcludingTax.IsZero() {
		item.TaxPercentage = decimal.Zero
		return
	}
	item.TaxPercentage = Round2(item.TaxAmount.Div(item.PriceExcludingTax).Mul(hundred))
}

// LineTotal is (effective + extraTax + furtherTax + fedPayableTax − discount) × multiplier.
func LineTotal(item LineItem) decimal.Decimal {
	unit := item.EffectiveUnitPrice().
		Add(item.ExtraTax).
		Add(item.FurtherTax).
		Add(item.FedPayableTax).
		Sub(item.Discount)
	return Round2(unit.Mul(item.Multiplier()))
}

// RecomputeTotal returns item with TotalPrice refreshed from its current per-unit values.
func RecomputeTotal(item LineItem) LineItem {
	out := item.Clone()
	if out.IsWeightBased {
		out.Quantity = 1
	}
	out.TotalPrice = LineTotal(out)
	return out
}

// Apply runs a sequence of edits, as a form does when several inputs change in order.
func Apply(item LineItem, edits ...Edit) LineItem {
	for _, edit := range edits {
		item = Resolve(item, edit).Item
	}
	return item
}
