package fbr

import (
	"github.com/shopspring/decimal"
)

// Source identifies where a preview's figures came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceRemote   Source = "remote"
	SourceEnhanced Source = "enhanced"
)

// OrderHeader carries the buyer side and invoice metadata of an order.
type OrderHeader struct {
	OrderID               string `json:"orderId"`
	OrderNumber           string `json:"orderNumber,omitempty"`
	InvoiceType           string `json:"invoiceType"`
	InvoiceDate           string `json:"invoiceDate"`
	InvoiceRefNo          string `json:"invoiceRefNo,omitempty"`
	ScenarioID            string `json:"scenarioId,omitempty"`
	BuyerNTNCNIC          string `json:"buyerNTNCNIC,omitempty"`
	BuyerBusinessName     string `json:"buyerBusinessName,omitempty"`
	BuyerProvince         string `json:"buyerProvince,omitempty"`
	BuyerAddress          string `json:"buyerAddress,omitempty"`
	BuyerRegistrationType string `json:"buyerRegistrationType,omitempty"`

	// Fallbacks for lines that do not set their own values.
	DefaultSaleType string `json:"-"`
	DefaultUOM      string `json:"-"`
}

// SellerInfo is the registered seller as configured upstream.
type SellerInfo struct {
	NTNCNIC      string `json:"sellerNTNCNIC"`
	BusinessName string `json:"sellerBusinessName"`
	Province     string `json:"sellerProvince"`
	Address      string `json:"sellerAddress"`
}

// Line is one invoice line in the tax authority's layout.
type Line struct {
	ItemID                          string          `json:"itemId,omitempty"`
	SerialNumber                    string          `json:"serialNumber,omitempty"`
	HSCode                          string          `json:"hsCode"`
	ProductDescription              string          `json:"productDescription"`
	Rate                            string          `json:"rate"`
	UOM                             string          `json:"uoM"`
	Quantity                        decimal.Decimal `json:"quantity"`
	DisplayWeight                   string          `json:"displayWeight,omitempty"`
	UnitPriceExcludingST            decimal.Decimal `json:"unitPriceExcludingST"`
	UnitSalesTax                    decimal.Decimal `json:"unitSalesTax"`
	ValueSalesExcludingST           decimal.Decimal `json:"valueSalesExcludingST"`
	SalesTaxApplicable              decimal.Decimal `json:"salesTaxApplicable"`
	SalesTaxWithheldAtSource        decimal.Decimal `json:"salesTaxWithheldAtSource"`
	ExtraTax                        decimal.Decimal `json:"extraTax"`
	FurtherTax                      decimal.Decimal `json:"furtherTax"`
	FedPayable                      decimal.Decimal `json:"fedPayable"`
	Discount                        decimal.Decimal `json:"discount"`
	TotalValues                     decimal.Decimal `json:"totalValues"`
	FixedNotifiedValueOrRetailPrice decimal.Decimal `json:"fixedNotifiedValueOrRetailPrice"`
	SaleType                        string          `json:"saleType"`
	SROScheduleNo                   string          `json:"sroScheduleNo"`
	SROItemSerialNo                 string          `json:"sroItemSerialNo"`
	Mismatches                      []string        `json:"mismatches,omitempty"`
}

// Summary sums the monetary columns of every line.
type Summary struct {
	ValueSalesExcludingST decimal.Decimal `json:"valueSalesExcludingST"`
	SalesTax              decimal.Decimal `json:"salesTax"`
	ExtraTax              decimal.Decimal `json:"extraTax"`
	FurtherTax            decimal.Decimal `json:"furtherTax"`
	FedPayable            decimal.Decimal `json:"fedPayable"`
	Discount              decimal.Decimal `json:"discount"`
	TotalValues           decimal.Decimal `json:"totalValues"`
}

// Preview is the invoice as it would be submitted, for staff review.
type Preview struct {
	Source  Source      `json:"source"`
	Header  OrderHeader `json:"header"`
	Seller  SellerInfo  `json:"seller"`
	Items   []Line      `json:"items"`
	Summary Summary     `json:"summary"`
}

// ItemError is a per-line rejection reported by the tax authority.
type ItemError struct {
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
