package orders

import (
	"context"
	"strings"

	"github.com/angelmondragon/orderdesk-backend/internal/loyalty"
	"github.com/angelmondragon/orderdesk-backend/internal/totals"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
)

// RedeemInput asks to redeem Points, or the whole balance when All is set,
// against the draft's customer.
type RedeemInput struct {
	Draft  Draft `json:"order"`
	Points int64 `json:"points"`
	All    bool  `json:"all"`
}

// RedeemResult is the draft with the redemption applied.
type RedeemResult struct {
	Order           Draft              `json:"order"`
	Redemption      loyalty.Redemption `json:"redemption"`
	AvailablePoints int64              `json:"availablePoints"`
}

func loyaltyFromUpstream(in upstream.LoyaltySettings) loyalty.Settings {
	return loyalty.Settings{
		Enabled:              bool(in.Enabled),
		RedemptionValue:      in.RedemptionValue.Decimal,
		MaxRedemptionPercent: in.MaxRedemptionPercent.Decimal,
		RedemptionMinimum:    int64(in.RedemptionMinimum),
	}
}

func (s *service) RedeemPoints(ctx context.Context, input RedeemInput) (*RedeemResult, error) {
	draft := input.Draft
	userID := strings.TrimSpace(draft.UserID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer required to redeem points")
	}

	raw, err := s.loyaltySettings(ctx)
	if err != nil {
		return nil, upstreamError(err, "load loyalty settings")
	}
	if raw == nil || !bool(raw.Enabled) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty programme is disabled")
	}
	settings := loyaltyFromUpstream(*raw)

	balance, err := s.upstream.GetLoyaltyPoints(ctx, userID)
	if err != nil {
		return nil, upstreamError(err, "load loyalty points")
	}
	available := int64(balance.AvailablePoints)

	subtotal := totals.Subtotal(draft.Items)
	discount := totals.Discount(subtotal, draft.OrderLevel)

	var redemption loyalty.Redemption
	if input.All {
		redemption = loyalty.RedeemAll(available, settings, subtotal, discount)
	} else {
		redemption = loyalty.Redeem(input.Points, available, settings, subtotal, discount)
	}
	if err := loyalty.CheckMinimum(redemption.PointsToRedeem, settings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).
			WithDetails(map[string]any{"minimum": settings.RedemptionMinimum, "points": redemption.PointsToRedeem})
	}

	out := draft.Clone()
	out.PointsToRedeem = redemption.PointsToRedeem
	out.PointsDiscountAmount = redemption.PointsDiscountAmount
	out.Recalculate()
	return &RedeemResult{Order: out, Redemption: redemption, AvailablePoints: available}, nil
}
