package fbr

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/angelmondragon/orderdesk-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Invoice is the preview invoice returned by the tax-submission service. Amounts
// arrive as numbers, numeric strings or blanks.
type Invoice struct {
	InvoiceType           string        `json:"invoiceType"`
	InvoiceDate           string        `json:"invoiceDate"`
	InvoiceRefNo          string        `json:"invoiceRefNo"`
	ScenarioID            string        `json:"scenarioId"`
	SellerNTNCNIC         string        `json:"sellerNTNCNIC"`
	SellerBusinessName    string        `json:"sellerBusinessName"`
	SellerProvince        string        `json:"sellerProvince"`
	SellerAddress         string        `json:"sellerAddress"`
	BuyerNTNCNIC          string        `json:"buyerNTNCNIC"`
	BuyerBusinessName     string        `json:"buyerBusinessName"`
	BuyerProvince         string        `json:"buyerProvince"`
	BuyerAddress          string        `json:"buyerAddress"`
	BuyerRegistrationType string        `json:"buyerRegistrationType"`
	Items                 []InvoiceItem `json:"items"`
}

// InvoiceItem is one remote invoice line.
type InvoiceItem struct {
	HSCode                          string            `json:"hsCode"`
	ProductDescription              string            `json:"productDescription"`
	Rate                            string            `json:"rate"`
	UOM                             string            `json:"uoM"`
	Quantity                        types.FlexDecimal `json:"quantity"`
	ValueSalesExcludingST           types.FlexDecimal `json:"valueSalesExcludingST"`
	SalesTaxApplicable              types.FlexDecimal `json:"salesTaxApplicable"`
	SalesTaxWithheldAtSource        types.FlexDecimal `json:"salesTaxWithheldAtSource"`
	ExtraTax                        types.FlexDecimal `json:"extraTax"`
	FurtherTax                      types.FlexDecimal `json:"furtherTax"`
	FedPayable                      types.FlexDecimal `json:"fedPayable"`
	Discount                        types.FlexDecimal `json:"discount"`
	TotalValues                     types.FlexDecimal `json:"totalValues"`
	FixedNotifiedValueOrRetailPrice types.FlexDecimal `json:"fixedNotifiedValueOrRetailPrice"`
	SaleType                        string            `json:"saleType"`
	SROScheduleNo                   string            `json:"sroScheduleNo"`
	SROItemSerialNo                 string            `json:"sroItemSerialNo"`
}

// DecodeInvoice parses the fbrInvoice document of a preview response.
func DecodeInvoice(raw []byte) (Invoice, error) {
	var inv Invoice
	if len(raw) == 0 {
		return inv, nil
	}
	if err := json.Unmarshal(raw, &inv); err != nil {
		return Invoice{}, fmt.Errorf("decode fbr invoice: %w", err)
	}
	return inv, nil
}

var tolerance = decimal.RequireFromString("0.01")

// Enhance merges the remote preview with the locally computed one. Remote
// values win; anything the remote left blank or zero is filled from local,
// local lines the remote dropped are appended, and lines whose monetary
// columns disagree by more than a cent list the disagreeing columns.
// Lines pair by position, so the remote must be sent items in SortItems order.
func Enhance(remote Invoice, local Preview) Preview {
	out := Preview{
		Source: SourceEnhanced,
		Header: local.Header,
		Seller: local.Seller,
	}

	out.Header.InvoiceType = firstNonEmpty(remote.InvoiceType, local.Header.InvoiceType)
	out.Header.InvoiceDate = firstNonEmpty(remote.InvoiceDate, local.Header.InvoiceDate)
	out.Header.InvoiceRefNo = firstNonEmpty(remote.InvoiceRefNo, local.Header.InvoiceRefNo)
	out.Header.ScenarioID = firstNonEmpty(remote.ScenarioID, local.Header.ScenarioID)
	out.Header.BuyerNTNCNIC = firstNonEmpty(remote.BuyerNTNCNIC, local.Header.BuyerNTNCNIC)
	out.Header.BuyerBusinessName = firstNonEmpty(remote.BuyerBusinessName, local.Header.BuyerBusinessName)
	out.Header.BuyerProvince = firstNonEmpty(remote.BuyerProvince, local.Header.BuyerProvince)
	out.Header.BuyerAddress = firstNonEmpty(remote.BuyerAddress, local.Header.BuyerAddress)
	out.Header.BuyerRegistrationType = firstNonEmpty(remote.BuyerRegistrationType, local.Header.BuyerRegistrationType)
	out.Seller.NTNCNIC = firstNonEmpty(remote.SellerNTNCNIC, local.Seller.NTNCNIC)
	out.Seller.BusinessName = firstNonEmpty(remote.SellerBusinessName, local.Seller.BusinessName)
	out.Seller.Province = firstNonEmpty(remote.SellerProvince, local.Seller.Province)
	out.Seller.Address = firstNonEmpty(remote.SellerAddress, local.Seller.Address)

	n := max(len(remote.Items), len(local.Items))
	out.Items = make([]Line, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(remote.Items):
			out.Items = append(out.Items, local.Items[i])
		case i >= len(local.Items):
			out.Items = append(out.Items, fromRemote(remote.Items[i], Line{}))
		default:
			out.Items = append(out.Items, fromRemote(remote.Items[i], local.Items[i]))
		}
	}
	out.Summary = Summarize(out.Items)
	return out
}

func fromRemote(r InvoiceItem, local Line) Line {
	line := local
	line.Mismatches = nil
	line.HSCode = NormalizeHSCode(firstNonEmpty(r.HSCode, local.HSCode))
	line.ProductDescription = firstNonEmpty(r.ProductDescription, local.ProductDescription)
	line.Rate = firstNonEmpty(r.Rate, local.Rate)
	line.UOM = firstNonEmpty(r.UOM, local.UOM)
	line.SaleType = firstNonEmpty(r.SaleType, local.SaleType)
	line.SROScheduleNo = firstNonEmpty(r.SROScheduleNo, local.SROScheduleNo)
	line.SROItemSerialNo = firstNonEmpty(r.SROItemSerialNo, local.SROItemSerialNo)

	merge := func(column string, remote types.FlexDecimal, local decimal.Decimal, compare bool) decimal.Decimal {
		if remote.IsZero() {
			return local
		}
		if compare && !local.IsZero() && remote.Sub(local).Abs().GreaterThan(tolerance) {
			line.Mismatches = append(line.Mismatches, column)
		}
		return remote.Decimal
	}

	line.Quantity = merge("quantity", r.Quantity, local.Quantity, true)
	line.ValueSalesExcludingST = merge("valueSalesExcludingST", r.ValueSalesExcludingST, local.ValueSalesExcludingST, true)
	line.SalesTaxApplicable = merge("salesTaxApplicable", r.SalesTaxApplicable, local.SalesTaxApplicable, true)
	line.SalesTaxWithheldAtSource = merge("salesTaxWithheldAtSource", r.SalesTaxWithheldAtSource, local.SalesTaxWithheldAtSource, false)
	line.ExtraTax = merge("extraTax", r.ExtraTax, local.ExtraTax, true)
	line.FurtherTax = merge("furtherTax", r.FurtherTax, local.FurtherTax, true)
	line.FedPayable = merge("fedPayable", r.FedPayable, local.FedPayable, true)
	line.Discount = merge("discount", r.Discount, local.Discount, true)
	line.TotalValues = merge("totalValues", r.TotalValues, local.TotalValues, true)
	line.FixedNotifiedValueOrRetailPrice = merge("fixedNotifiedValueOrRetailPrice", r.FixedNotifiedValueOrRetailPrice, local.FixedNotifiedValueOrRetailPrice, false)

	if line.UnitPriceExcludingST.IsZero() && line.Quantity.IsPositive() {
		line.UnitPriceExcludingST = taxengine.Round2(line.ValueSalesExcludingST.Div(line.Quantity))
	}
	if line.UnitSalesTax.IsZero() && line.Quantity.IsPositive() {
		line.UnitSalesTax = taxengine.Round2(line.SalesTaxApplicable.Div(line.Quantity))
	}
	return line
}
