package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderdesk-backend/internal/loyalty"
	internalorders "github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/angelmondragon/orderdesk-backend/internal/totals"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
)

// resolveOnlyService runs the real resolver and rejects everything else.
type resolveOnlyService struct {
	internalorders.Service
	calls int
}

func (s *resolveOnlyService) Resolve(_ context.Context, input internalorders.ResolveInput) (*taxengine.Result, error) {
	s.calls++
	result := taxengine.Resolve(input.Item, input.Edit)
	return &result, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func post(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestResolveLineItemDerivesTax(t *testing.T) {
	svc := &resolveOnlyService{}
	body := `{"item":{"id":"item_1","quantity":2,"priceExcludingTax":100},"edit":{"field":"taxPercentage","value":"18"}}`

	rec, env := post(t, ResolveLineItem(svc, nil), body)

	require.Equal(t, http.StatusOK, rec.Code)
	var result taxengine.Result
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, taxengine.RuleTaxFromPercentage, result.Rule)
	assert.True(t, result.Item.TaxAmount.Equal(dec("18")))
	assert.True(t, result.Item.PriceIncludingTax.Equal(dec("118")))
	assert.True(t, result.Item.TotalPrice.Equal(dec("236")))
}

func TestResolveLineItemRequiresField(t *testing.T) {
	svc := &resolveOnlyService{}

	rec, env := post(t, ResolveLineItem(svc, nil), `{"item":{"id":"item_1"},"edit":{"value":"3"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
	assert.Zero(t, svc.calls)
}

func TestResolveLineItemRejectsNegativeWeight(t *testing.T) {
	svc := &resolveOnlyService{}
	body := `{"item":{"id":"item_1","isWeightBased":true,"weightQuantity":500},"edit":{"field":"weightQuantity","value":"-1"}}`

	rec, env := post(t, ResolveLineItem(svc, nil), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
	assert.Zero(t, svc.calls)
}

func TestTotalsAggregatesOrder(t *testing.T) {
	body := `{
		"items":[{"id":"a","quantity":1,"price":100,"totalPrice":100},{"id":"b","quantity":1,"price":100,"totalPrice":100}],
		"discountAmount":10,"discountType":"percentage","shippingAmount":15
	}`

	rec, env := post(t, Totals(nil), body)

	require.Equal(t, http.StatusOK, rec.Code)
	var got totals.Totals
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Subtotal.Equal(dec("200")), got.Subtotal.String())
	assert.True(t, got.DiscountAmount.Equal(dec("20")), got.DiscountAmount.String())
	assert.True(t, got.Total.Equal(dec("195")), got.Total.String())
}

func TestTotalsNeverNegative(t *testing.T) {
	body := `{"items":[{"id":"a","quantity":1,"price":50,"totalPrice":50}],"discountAmount":80,"discountType":"flat"}`

	rec, env := post(t, Totals(nil), body)

	require.Equal(t, http.StatusOK, rec.Code)
	var got totals.Totals
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Total.IsZero(), got.Total.String())
}

func TestRedeemPointsCapsAtMaxPercent(t *testing.T) {
	body := `{
		"points":1000,"availablePoints":1000,"subtotal":1000,"currentDiscount":0,
		"settings":{"enabled":true,"redemptionValue":1,"maxRedemptionPercent":50,"redemptionMinimum":0}
	}`

	rec, env := post(t, RedeemPoints(nil), body)

	require.Equal(t, http.StatusOK, rec.Code)
	var got loyalty.Redemption
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, int64(500), got.PointsToRedeem)
	assert.True(t, got.PointsDiscountAmount.Equal(dec("500")))
	assert.True(t, got.Capped)
}

func TestRedeemPointsRejectsBelowMinimum(t *testing.T) {
	body := `{
		"points":10,"availablePoints":1000,"subtotal":1000,
		"settings":{"enabled":true,"redemptionValue":1,"maxRedemptionPercent":50,"redemptionMinimum":100}
	}`

	rec, env := post(t, RedeemPoints(nil), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
}

func TestRedeemPointsRejectsDisabledProgramme(t *testing.T) {
	body := `{"all":true,"availablePoints":10,"subtotal":100,"settings":{"enabled":false,"redemptionValue":1}}`

	rec, env := post(t, RedeemPoints(nil), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "loyalty programme is disabled", env.Error.Message)
}
