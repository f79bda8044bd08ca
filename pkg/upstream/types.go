package upstream

import (
	"encoding/json"
	"strings"

	"github.com/angelmondragon/orderdesk-backend/pkg/types"
)

// Order is the sales order as stored by the ERP.
type Order struct {
	ID                   string            `json:"id"`
	OrderNumber          string            `json:"orderNumber"`
	Status               string            `json:"status"`
	UserID               string            `json:"userId"`
	CustomerName         string            `json:"customerName"`
	CustomerEmail        string            `json:"customerEmail"`
	Currency             string            `json:"currency"`
	Notes                string            `json:"notes"`
	Items                []OrderItem       `json:"items"`
	Subtotal             types.FlexDecimal `json:"subtotal"`
	TaxAmount            types.FlexDecimal `json:"taxAmount"`
	TaxRate              types.FlexDecimal `json:"taxRate"`
	DiscountAmount       types.FlexDecimal `json:"discountAmount"`
	DiscountType         string            `json:"discountType"`
	ShippingAmount       types.FlexDecimal `json:"shippingAmount"`
	PointsToRedeem       types.FlexInt     `json:"pointsToRedeem"`
	PointsDiscountAmount types.FlexDecimal `json:"pointsDiscountAmount"`
	TotalAmount          types.FlexDecimal `json:"totalAmount"`
	BillingAddress       *Address          `json:"billingAddress,omitempty"`
	ShippingAddress      *Address          `json:"shippingAddress,omitempty"`

	InvoiceType           string `json:"invoiceType"`
	InvoiceDate           string `json:"invoiceDate"`
	InvoiceRefNo          string `json:"invoiceRefNo"`
	ScenarioID            string `json:"scenarioId"`
	BuyerNTNCNIC          string `json:"buyerNTNCNIC"`
	BuyerBusinessName     string `json:"buyerBusinessName"`
	BuyerProvince         string `json:"buyerProvince"`
	BuyerAddress          string `json:"buyerAddress"`
	BuyerRegistrationType string `json:"buyerRegistrationType"`
	FBRInvoiceNumber      string `json:"fbrInvoiceNumber,omitempty"`
}

// Address is a billing or shipping block.
type Address struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// OrderItem is a line item as the ERP stores it.
type OrderItem struct {
	ID                 string `json:"id"`
	ProductID          string `json:"productId"`
	VariantID          string `json:"variantId,omitempty"`
	ProductName        string `json:"productName"`
	ProductDescription string `json:"productDescription,omitempty"`
	VariantTitle       string `json:"variantTitle,omitempty"`
	SKU                string `json:"sku,omitempty"`
	HSCode             string `json:"hsCode,omitempty"`

	Quantity       types.FlexInt     `json:"quantity"`
	IsWeightBased  types.FlexBool    `json:"isWeightBased"`
	WeightQuantity types.FlexDecimal `json:"weightQuantity"`
	WeightUnit     string            `json:"weightUnit,omitempty"`

	Price             types.FlexDecimal `json:"price"`
	PriceExcludingTax types.FlexDecimal `json:"priceExcludingTax"`
	PriceIncludingTax types.FlexDecimal `json:"priceIncludingTax"`
	TaxPercentage     types.FlexDecimal `json:"taxPercentage"`
	TaxAmount         types.FlexDecimal `json:"taxAmount"`
	ExtraTax          types.FlexDecimal `json:"extraTax"`
	FurtherTax        types.FlexDecimal `json:"furtherTax"`
	FedPayableTax     types.FlexDecimal `json:"fedPayableTax"`
	Discount          types.FlexDecimal `json:"discount"`
	TotalPrice        types.FlexDecimal `json:"totalPrice"`

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

	DisableAutoTaxCalculations types.FlexBool `json:"disableAutoTaxCalculations"`
	Addons                     AddonList      `json:"addons"`
}

// ItemAddon is an addon attached to an order item.
type ItemAddon struct {
	AddonID    string            `json:"addonId"`
	AddonTitle string            `json:"addonTitle"`
	Price      types.FlexDecimal `json:"price"`
	Quantity   types.FlexInt     `json:"quantity"`
}

// AddonList decodes addons sent either as a JSON array or as a string holding
// a JSON encoded array. Undecodable strings yield an empty list.
type AddonList []ItemAddon

// UnmarshalJSON implements json.Unmarshaler.
func (a *AddonList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*a = nil
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			*a = nil
			return nil
		}
		var list []ItemAddon
		if err := json.Unmarshal([]byte(encoded), &list); err != nil {
			*a = nil
			return nil
		}
		*a = list
		return nil
	}
	var list []ItemAddon
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*a = list
	return nil
}

// SaveOrderRequest is the full order payload sent on save.
type SaveOrderRequest struct {
	Order
	SkipFBRSubmission      bool   `json:"skipFbrSubmission"`
	IsProductionSubmission bool   `json:"isProductionSubmission"`
	ProductionToken        string `json:"productionToken,omitempty"`
	SellerNTNCNIC          string `json:"sellerNTNCNIC,omitempty"`
	SellerBusinessName     string `json:"sellerBusinessName,omitempty"`
	SellerProvince         string `json:"sellerProvince,omitempty"`
	SellerAddress          string `json:"sellerAddress,omitempty"`
}

// SaveOrderResponse is returned by PUT /orders/{id}.
type SaveOrderResponse struct {
	OrderID          string `json:"orderId"`
	OrderNumber      string `json:"orderNumber"`
	FBRInvoiceNumber string `json:"fbrInvoiceNumber,omitempty"`
}

// DuplicateOrderResponse is returned by POST /orders/{id}/duplicate.
type DuplicateOrderResponse struct {
	NewOrderID string `json:"newOrderId"`
}

// Product is a catalog entry.
type Product struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	SKU               string            `json:"sku"`
	HSCode            string            `json:"hsCode"`
	UOM               string            `json:"uom"`
	SaleType          string            `json:"saleType"`
	Price             types.FlexDecimal `json:"price"`
	PriceExcludingTax types.FlexDecimal `json:"priceExcludingTax"`
	PriceIncludingTax types.FlexDecimal `json:"priceIncludingTax"`
	TaxPercentage     types.FlexDecimal `json:"taxPercentage"`
	IsWeightBased     types.FlexBool    `json:"isWeightBased"`
	PricePerUnit      types.FlexDecimal `json:"pricePerUnit"`
	BaseWeightUnit    string            `json:"baseWeightUnit"`
	HasVariants       types.FlexBool    `json:"hasVariants"`
}

// Variant is a sellable variation of a product.
type Variant struct {
	ID                string            `json:"id"`
	ProductID         string            `json:"productId"`
	Title             string            `json:"title"`
	SKU               string            `json:"sku"`
	Price             types.FlexDecimal `json:"price"`
	PriceExcludingTax types.FlexDecimal `json:"priceExcludingTax"`
	PriceIncludingTax types.FlexDecimal `json:"priceIncludingTax"`
	TaxPercentage     types.FlexDecimal `json:"taxPercentage"`
}

// ProductAddon is an optional extra offered with a product.
type ProductAddon struct {
	ID        string            `json:"id"`
	ProductID string            `json:"productId"`
	Title     string            `json:"title"`
	Price     types.FlexDecimal `json:"price"`
}

// User is an entry of the ERP user directory.
type User struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	UserType *string `json:"userType"`
}

// LoyaltySettings is the loyalty programme configuration.
type LoyaltySettings struct {
	Enabled              types.FlexBool    `json:"enabled"`
	RedemptionValue      types.FlexDecimal `json:"redemptionValue"`
	MaxRedemptionPercent types.FlexDecimal `json:"maxRedemptionPercent"`
	RedemptionMinimum    types.FlexInt     `json:"redemptionMinimum"`
}

// LoyaltyPoints is a customer's balance.
type LoyaltyPoints struct {
	UserID          string        `json:"userId"`
	AvailablePoints types.FlexInt `json:"availablePoints"`
}

// FBRSettings is the store's digital invoicing configuration.
type FBRSettings struct {
	Enabled            types.FlexBool `json:"enabled"`
	SandboxMode        types.FlexBool `json:"sandboxMode"`
	DefaultSaleType    string         `json:"defaultSaleType"`
	DefaultUOM         string         `json:"defaultUom"`
	DefaultInvoiceType string         `json:"defaultInvoiceType"`
	ScenarioID         string         `json:"scenarioId"`
}

// SellerInfo is the registered seller.
type SellerInfo struct {
	NTNCNIC      string `json:"sellerNTNCNIC"`
	BusinessName string `json:"sellerBusinessName"`
	Province     string `json:"sellerProvince"`
	Address      string `json:"sellerAddress"`
}

// ItemError is a per-line error reported by the tax-submission service.
type ItemError struct {
	Index   types.FlexInt `json:"index"`
	Field   string        `json:"field,omitempty"`
	Message string        `json:"message"`
}
