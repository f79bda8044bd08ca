package taxengine

import (
	"fmt"
	"strings"
)

// Field names an editable line item input. Values match the JSON keys of LineItem.
type Field string

const (
	FieldQuantity          Field = "quantity"
	FieldWeightQuantity    Field = "weightQuantity"
	FieldPrice             Field = "price"
	FieldPriceExcludingTax Field = "priceExcludingTax"
	FieldPriceIncludingTax Field = "priceIncludingTax"
	FieldTaxPercentage     Field = "taxPercentage"
	FieldTaxAmount         Field = "taxAmount"
	FieldExtraTax          Field = "extraTax"
	FieldFurtherTax        Field = "furtherTax"
	FieldFedPayableTax     Field = "fedPayableTax"
	FieldDiscount          Field = "discount"

	FieldDisableAuto Field = "disableAutoTaxCalculations"

	FieldHSCode             Field = "hsCode"
	FieldProductDescription Field = "productDescription"
	FieldSerialNumber       Field = "serialNumber"
	FieldListNumber         Field = "listNumber"
	FieldBCNumber           Field = "bcNumber"
	FieldLotNumber          Field = "lotNumber"
	FieldExpiryDate         Field = "expiryDate"
	FieldItemSerialNumber   Field = "itemSerialNumber"
	FieldSROScheduleNumber  Field = "sroScheduleNumber"
	FieldSaleType           Field = "saleType"
	FieldUOM                Field = "uom"
	FieldFixedNotifiedValue Field = "fixedNotifiedValueOrRetailPrice"
)

var numericFields = map[Field]struct{}{
	FieldQuantity:          {},
	FieldWeightQuantity:    {},
	FieldPrice:             {},
	FieldPriceExcludingTax: {},
	FieldPriceIncludingTax: {},
	FieldTaxPercentage:     {},
	FieldTaxAmount:         {},
	FieldExtraTax:          {},
	FieldFurtherTax:        {},
	FieldFedPayableTax:     {},
	FieldDiscount:          {},
}

var textFields = map[Field]struct{}{
	FieldHSCode:             {},
	FieldProductDescription: {},
	FieldSerialNumber:       {},
	FieldListNumber:         {},
	FieldBCNumber:           {},
	FieldLotNumber:          {},
	FieldExpiryDate:         {},
	FieldItemSerialNumber:   {},
	FieldSROScheduleNumber:  {},
	FieldSaleType:           {},
	FieldUOM:                {},
	FieldFixedNotifiedValue: {},
}

// IsNumeric reports whether edits to the field take part in price resolution.
func (f Field) IsNumeric() bool {
	_, ok := numericFields[f]
	return ok
}

// IsText reports whether the field is a pass-through compliance string.
func (f Field) IsText() bool {
	_, ok := textFields[f]
	return ok
}

// IsValid reports whether the field can be edited at all.
func (f Field) IsValid() bool {
	return f.IsNumeric() || f.IsText() || f == FieldDisableAuto
}

// ParseField converts a raw field name into a Field.
func ParseField(value string) (Field, error) {
	f := Field(value)
	if !f.IsValid() {
		return "", fmt.Errorf("unknown line item field %q", value)
	}
	return f, nil
}

// Rule identifies which resolution rule produced a Result.
type Rule string

const (
	RuleQuantity                Rule = "quantity"
	RuleWeight                  Rule = "weight"
	RuleTaxFromPercentage       Rule = "tax_from_percentage"
	RuleTaxFromExcluding        Rule = "tax_from_excluding"
	RuleExcludingFromIncluding  Rule = "excluding_from_including"
	RulePercentageFromIncluding Rule = "percentage_from_including"
	RulePercentageFromExcluding Rule = "percentage_from_excluding"
	RuleTotalOnly               Rule = "total_only"
	RuleManual                  Rule = "manual"
	RuleText                    Rule = "text"
	RuleToggle                  Rule = "toggle"
	RuleDeferred                Rule = "deferred"
	RuleIgnored                 Rule = "ignored"
)

// RejectValue returns the reason value cannot be applied to field, or "" when
// it can. Blank input is accepted so a half-typed form does not error.
func RejectValue(field Field, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	switch field {
	case FieldQuantity:
		if ParseAmount(value).IntPart() < 1 {
			return "must be greater than zero"
		}
	case FieldWeightQuantity:
		if ParseAmount(value).IsNegative() {
			return "must not be negative"
		}
	}
	return ""
}
