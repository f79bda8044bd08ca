package taxengine

import (
	"github.com/shopspring/decimal"
)

// LineItem is one purchased product or variant inside a sales order. All
// prices are per unit; for weight-based items the unit is one gram.
type LineItem struct {
	ID                 string `json:"id"`
	ProductID          string `json:"productId"`
	VariantID          string `json:"variantId,omitempty"`
	ProductName        string `json:"productName"`
	ProductDescription string `json:"productDescription,omitempty"`
	VariantTitle       string `json:"variantTitle,omitempty"`
	SKU                string `json:"sku,omitempty"`
	HSCode             string `json:"hsCode,omitempty"`

	Quantity       int             `json:"quantity"`
	IsWeightBased  bool            `json:"isWeightBased"`
	WeightQuantity decimal.Decimal `json:"weightQuantity"`
	WeightUnit     WeightUnit      `json:"weightUnit,omitempty"`

	Price             decimal.Decimal `json:"price"`
	PriceExcludingTax decimal.Decimal `json:"priceExcludingTax"`
	PriceIncludingTax decimal.Decimal `json:"priceIncludingTax"`
	TaxPercentage     decimal.Decimal `json:"taxPercentage"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	ExtraTax          decimal.Decimal `json:"extraTax"`
	FurtherTax        decimal.Decimal `json:"furtherTax"`
	FedPayableTax     decimal.Decimal `json:"fedPayableTax"`
	Discount          decimal.Decimal `json:"discount"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`

	SerialNumber                    string `json:"serialNumber,omitempty"`
	ListNumber                      string `json:"listNumber,omitempty"`
	BCNumber                        string `json:"bcNumber,omitempty"`
	LotNumber                       string `json:"lotNumber,omitempty"`
	ExpiryDate                      string `json:"expiryDate,omitempty"`
	ItemSerialNumber                string `json:"itemSerialNumber,omitempty"`
	SROScheduleNumber               string `json:"sroScheduleNumber,omitempty"`
	SaleType                        string `json:"saleType,omitempty"`
	UOM                             string `json:"uom,omitempty"`
	FixedNotifiedValueOrRetailPrice string `json:"fixedNotifiedValueOrRetailPrice,omitempty"`

	DisableAutoTaxCalculations bool    `json:"disableAutoTaxCalculations"`
	Addons                     []Addon `json:"addons"`
}

// Addon is an optional extra sold together with a line item.
type Addon struct {
	AddonID    string          `json:"addonId"`
	AddonTitle string          `json:"addonTitle"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

// Clone returns a copy that shares no mutable state with item.
func (item LineItem) Clone() LineItem {
	out := item
	if item.Addons != nil {
		out.Addons = make([]Addon, len(item.Addons))
		copy(out.Addons, item.Addons)
	}
	return out
}

// AddonsCost is Σ(addon.Price × addon.Quantity) for a single unit of the item.
func (item LineItem) AddonsCost() decimal.Decimal {
	sum := decimal.Zero
	for _, addon := range item.Addons {
		sum = sum.Add(addon.Price.Mul(decimal.NewFromInt(int64(addon.Quantity))))
	}
	return sum
}

// EffectiveUnitPrice is the tax-inclusive price when one is set, else the base price.
func (item LineItem) EffectiveUnitPrice() decimal.Decimal {
	if item.PriceIncludingTax.IsPositive() {
		return item.PriceIncludingTax
	}
	return item.Price
}

// Multiplier is the unit count a per-unit price is multiplied by: grams for
// weight-based items, quantity otherwise.
func (item LineItem) Multiplier() decimal.Decimal {
	if item.IsWeightBased {
		return item.WeightQuantity
	}
	return decimal.NewFromInt(int64(item.Quantity))
}

func (item *LineItem) amount(field Field) *decimal.Decimal {
	switch field {
	case FieldPrice:
		return &item.Price
	case FieldPriceExcludingTax:
		return &item.PriceExcludingTax
	case FieldPriceIncludingTax:
		return &item.PriceIncludingTax
	case FieldTaxPercentage:
		return &item.TaxPercentage
	case FieldTaxAmount:
		return &item.TaxAmount
	case FieldExtraTax:
		return &item.ExtraTax
	case FieldFurtherTax:
		return &item.FurtherTax
	case FieldFedPayableTax:
		return &item.FedPayableTax
	case FieldDiscount:
		return &item.Discount
	}
	return nil
}

func (item *LineItem) text(field Field) *string {
	switch field {
	case FieldHSCode:
		return &item.HSCode
	case FieldProductDescription:
		return &item.ProductDescription
	case FieldSerialNumber:
		return &item.SerialNumber
	case FieldListNumber:
		return &item.ListNumber
	case FieldBCNumber:
		return &item.BCNumber
	case FieldLotNumber:
		return &item.LotNumber
	case FieldExpiryDate:
		return &item.ExpiryDate
	case FieldItemSerialNumber:
		return &item.ItemSerialNumber
	case FieldSROScheduleNumber:
		return &item.SROScheduleNumber
	case FieldSaleType:
		return &item.SaleType
	case FieldUOM:
		return &item.UOM
	case FieldFixedNotifiedValue:
		return &item.FixedNotifiedValueOrRetailPrice
	}
	return nil
}
