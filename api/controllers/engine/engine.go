package engine

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderdesk-backend/api/responses"
	"github.com/angelmondragon/orderdesk-backend/api/validators"
	"github.com/angelmondragon/orderdesk-backend/internal/loyalty"
	internalorders "github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/angelmondragon/orderdesk-backend/internal/totals"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
)

type totalsRequest struct {
	Items []taxengine.LineItem `json:"items"`
	totals.OrderLevel
}

type redeemRequest struct {
	Points          int64            `json:"points" validate:"min=0"`
	All             bool             `json:"all"`
	AvailablePoints int64            `json:"availablePoints" validate:"min=0"`
	Settings        loyalty.Settings `json:"settings"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	CurrentDiscount decimal.Decimal  `json:"currentDiscount"`
}

// ResolveLineItem applies one field edit to a line item and returns the
// recomputed item. Superseded sequence tokens are rejected.
func ResolveLineItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var input internalorders.ResolveInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.LineItemEdit(input.Edit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Resolve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Totals aggregates line items and order-level adjustments.
func Totals(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req totalsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals.Aggregate(req.Items, req.OrderLevel))
	}
}

// RedeemPoints computes a points redemption without touching an order.
func RedeemPoints(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redeemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !req.Settings.Enabled {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "loyalty programme is disabled"))
			return
		}
		if !req.Settings.RedemptionValue.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"settings.redemptionValue": "must be greater than 0"}))
			return
		}

		var redemption loyalty.Redemption
		if req.All {
			redemption = loyalty.RedeemAll(req.AvailablePoints, req.Settings, req.Subtotal, req.CurrentDiscount)
		} else {
			redemption = loyalty.Redeem(req.Points, req.AvailablePoints, req.Settings, req.Subtotal, req.CurrentDiscount)
		}
		if err := loyalty.CheckMinimum(redemption.PointsToRedeem, req.Settings); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()))
			return
		}
		responses.WriteSuccess(w, redemption)
	}
}
