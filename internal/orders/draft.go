package orders

import (
	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/angelmondragon/orderdesk-backend/internal/totals"
	"github.com/angelmondragon/orderdesk-backend/pkg/types"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
	"github.com/samber/lo"
)

// Invoice holds the buyer and invoice metadata submitted with the order.
type Invoice struct {
	InvoiceType           string `json:"invoiceType"`
	InvoiceDate           string `json:"invoiceDate"`
	InvoiceRefNo          string `json:"invoiceRefNo,omitempty"`
	ScenarioID            string `json:"scenarioId,omitempty"`
	BuyerNTNCNIC          string `json:"buyerNTNCNIC,omitempty"`
	BuyerBusinessName     string `json:"buyerBusinessName,omitempty"`
	BuyerProvince         string `json:"buyerProvince,omitempty"`
	BuyerAddress          string `json:"buyerAddress,omitempty"`
	BuyerRegistrationType string `json:"buyerRegistrationType,omitempty"`
	FBRInvoiceNumber      string `json:"fbrInvoiceNumber,omitempty"`
}

// Draft is an order being edited. Items and order-level figures are the
// editable state; Totals is always derived from them.
type Draft struct {
	ID            string               `json:"id"`
	OrderNumber   string               `json:"orderNumber,omitempty"`
	Status        string               `json:"status,omitempty"`
	UserID        string               `json:"userId,omitempty"`
	CustomerName  string               `json:"customerName,omitempty"`
	CustomerEmail string               `json:"customerEmail,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Items         []taxengine.LineItem `json:"items"`
	totals.OrderLevel
	Invoice         Invoice           `json:"invoice"`
	BillingAddress  *upstream.Address `json:"billingAddress,omitempty"`
	ShippingAddress *upstream.Address `json:"shippingAddress,omitempty"`
	Totals          totals.Totals     `json:"totals"`
}

// Clone returns a deep copy of the draft's items.
func (d Draft) Clone() Draft {
	out := d
	out.Items = lo.Map(d.Items, func(item taxengine.LineItem, _ int) taxengine.LineItem { return item.Clone() })
	return out
}

// Recalculate refreshes the derived totals.
func (d *Draft) Recalculate() {
	d.Totals = totals.Aggregate(d.Items, d.OrderLevel)
}

// FromUpstream converts an ERP order into an editable draft.
func FromUpstream(o upstream.Order) Draft {
	d := Draft{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		UserID:        o.UserID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Notes:         o.Notes,
		Items:         lo.Map(o.Items, func(item upstream.OrderItem, _ int) taxengine.LineItem { return itemFromUpstream(item) }),
		OrderLevel: totals.OrderLevel{
			DiscountAmount:       o.DiscountAmount.Decimal,
			DiscountType:         totals.ParseDiscountType(o.DiscountType),
			ShippingAmount:       o.ShippingAmount.Decimal,
			TaxRate:              o.TaxRate.Decimal,
			PointsToRedeem:       int64(o.PointsToRedeem),
			PointsDiscountAmount: o.PointsDiscountAmount.Decimal,
			Currency:             o.Currency,
		},
		Invoice: Invoice{
			InvoiceType:           o.InvoiceType,
			InvoiceDate:           o.InvoiceDate,
			InvoiceRefNo:          o.InvoiceRefNo,
			ScenarioID:            o.ScenarioID,
			BuyerNTNCNIC:          o.BuyerNTNCNIC,
			BuyerBusinessName:     o.BuyerBusinessName,
			BuyerProvince:         o.BuyerProvince,
			BuyerAddress:          o.BuyerAddress,
			BuyerRegistrationType: o.BuyerRegistrationType,
			FBRInvoiceNumber:      o.FBRInvoiceNumber,
		},
		BillingAddress:  o.BillingAddress,
		ShippingAddress: o.ShippingAddress,
	}
	if d.Items == nil {
		d.Items = []taxengine.LineItem{}
	}
	d.Recalculate()
	return d
}

// ToUpstream converts a draft back into the ERP shape, with derived figures.
func ToUpstream(d Draft) upstream.Order {
	return upstream.Order{
		ID:                    d.ID,
		OrderNumber:           d.OrderNumber,
		Status:                d.Status,
		UserID:                d.UserID,
		CustomerName:          d.CustomerName,
		CustomerEmail:         d.CustomerEmail,
		Currency:              d.Currency,
		Notes:                 d.Notes,
		Items:                 lo.Map(d.Items, func(item taxengine.LineItem, _ int) upstream.OrderItem { return itemToUpstream(item) }),
		Subtotal:              types.NewFlexDecimal(d.Totals.Subtotal),
		TaxAmount:             types.NewFlexDecimal(d.Totals.TaxAmount),
		TaxRate:               types.NewFlexDecimal(d.TaxRate),
		DiscountAmount:        types.NewFlexDecimal(d.DiscountAmount),
		DiscountType:          string(d.DiscountType),
		ShippingAmount:        types.NewFlexDecimal(d.ShippingAmount),
		PointsToRedeem:        types.FlexInt(d.PointsToRedeem),
		PointsDiscountAmount:  types.NewFlexDecimal(d.PointsDiscountAmount),
		TotalAmount:           types.NewFlexDecimal(d.Totals.Total),
		BillingAddress:        d.BillingAddress,
		ShippingAddress:       d.ShippingAddress,
		InvoiceType:           d.Invoice.InvoiceType,
		InvoiceDate:           d.Invoice.InvoiceDate,
		InvoiceRefNo:          d.Invoice.InvoiceRefNo,
		ScenarioID:            d.Invoice.ScenarioID,
		BuyerNTNCNIC:          d.Invoice.BuyerNTNCNIC,
		BuyerBusinessName:     d.Invoice.BuyerBusinessName,
		BuyerProvince:         d.Invoice.BuyerProvince,
		BuyerAddress:          d.Invoice.BuyerAddress,
		BuyerRegistrationType: d.Invoice.BuyerRegistrationType,
		FBRInvoiceNumber:      d.Invoice.FBRInvoiceNumber,
	}
}

func itemFromUpstream(in upstream.OrderItem) taxengine.LineItem {
	return taxengine.LineItem{
		ID:                              in.ID,
		ProductID:                       in.ProductID,
		VariantID:                       in.VariantID,
		ProductName:                     in.ProductName,
		ProductDescription:              in.ProductDescription,
		VariantTitle:                    in.VariantTitle,
		SKU:                             in.SKU,
		HSCode:                          in.HSCode,
		Quantity:                        in.Quantity.Int(),
		IsWeightBased:                   bool(in.IsWeightBased),
		WeightQuantity:                  in.WeightQuantity.Decimal,
		WeightUnit:                      taxengine.NormalizeWeightUnit(in.WeightUnit),
		Price:                           in.Price.Decimal,
		PriceExcludingTax:               in.PriceExcludingTax.Decimal,
		PriceIncludingTax:               in.PriceIncludingTax.Decimal,
		TaxPercentage:                   in.TaxPercentage.Decimal,
		TaxAmount:                       in.TaxAmount.Decimal,
		ExtraTax:                        in.ExtraTax.Decimal,
		FurtherTax:                      in.FurtherTax.Decimal,
		FedPayableTax:                   in.FedPayableTax.Decimal,
		Discount:                        in.Discount.Decimal,
		TotalPrice:                      in.TotalPrice.Decimal,
		SerialNumber:                    in.SerialNumber,
		ListNumber:                      in.ListNumber,
		BCNumber:                        in.BCNumber,
		LotNumber:                       in.LotNumber,
		ExpiryDate:                      in.ExpiryDate,
		ItemSerialNumber:                in.ItemSerialNumber,
		SROScheduleNumber:               in.SROScheduleNumber,
		SaleType:                        in.SaleType,
		UOM:                             in.UOM,
		FixedNotifiedValueOrRetailPrice: in.FixedNotifiedValueOrRetailPrice,
		DisableAutoTaxCalculations:      bool(in.DisableAutoTaxCalculations),
		Addons: lo.Map(in.Addons, func(a upstream.ItemAddon, _ int) taxengine.Addon {
			return taxengine.Addon{AddonID: a.AddonID, AddonTitle: a.AddonTitle, Price: a.Price.Decimal, Quantity: a.Quantity.Int()}
		}),
	}
}

func itemToUpstream(in taxengine.LineItem) upstream.OrderItem {
	return upstream.OrderItem{
		ID:                              in.ID,
		ProductID:                       in.ProductID,
		VariantID:                       in.VariantID,
		ProductName:                     in.ProductName,
		ProductDescription:              in.ProductDescription,
		VariantTitle:                    in.VariantTitle,
		SKU:                             in.SKU,
		HSCode:                          in.HSCode,
		Quantity:                        types.FlexInt(in.Quantity),
		IsWeightBased:                   types.FlexBool(in.IsWeightBased),
		WeightQuantity:                  types.NewFlexDecimal(in.WeightQuantity),
		WeightUnit:                      string(in.WeightUnit),
		Price:                           types.NewFlexDecimal(in.Price),
		PriceExcludingTax:               types.NewFlexDecimal(in.PriceExcludingTax),
		PriceIncludingTax:               types.NewFlexDecimal(in.PriceIncludingTax),
		TaxPercentage:                   types.NewFlexDecimal(in.TaxPercentage),
		TaxAmount:                       types.NewFlexDecimal(in.TaxAmount),
		ExtraTax:                        types.NewFlexDecimal(in.ExtraTax),
		FurtherTax:                      types.NewFlexDecimal(in.FurtherTax),
		FedPayableTax:                   types.NewFlexDecimal(in.FedPayableTax),
		Discount:                        types.NewFlexDecimal(in.Discount),
		TotalPrice:                      types.NewFlexDecimal(in.TotalPrice),
		SerialNumber:                    in.SerialNumber,
		ListNumber:                      in.ListNumber,
		BCNumber:                        in.BCNumber,
		LotNumber:                       in.LotNumber,
		ExpiryDate:                      in.ExpiryDate,
		ItemSerialNumber:                in.ItemSerialNumber,
		SROScheduleNumber:               in.SROScheduleNumber,
		SaleType:                        in.SaleType,
		UOM:                             in.UOM,
		FixedNotifiedValueOrRetailPrice: in.FixedNotifiedValueOrRetailPrice,
		DisableAutoTaxCalculations:      types.FlexBool(in.DisableAutoTaxCalculations),
		Addons: lo.Map(in.Addons, func(a taxengine.Addon, _ int) upstream.ItemAddon {
			return upstream.ItemAddon{AddonID: a.AddonID, AddonTitle: a.AddonTitle, Price: types.NewFlexDecimal(a.Price), Quantity: types.FlexInt(a.Quantity)}
		}),
	}
}
