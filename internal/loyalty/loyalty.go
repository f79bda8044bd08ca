package loyalty

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Settings is the store's loyalty programme configuration.
type Settings struct {
	Enabled              bool            `json:"enabled"`
	RedemptionValue      decimal.Decimal `json:"redemptionValue"`
	MaxRedemptionPercent decimal.Decimal `json:"maxRedemptionPercent"`
	RedemptionMinimum    int64           `json:"redemptionMinimum"`
}

// CustomerPoints is the customer's current balance in the loyalty ledger.
type CustomerPoints struct {
	UserID          string `json:"userId"`
	AvailablePoints int64  `json:"availablePoints"`
}

// Redemption is the clamped outcome of a points request.
type Redemption struct {
	RequestedPoints      int64           `json:"requestedPoints"`
	PointsToRedeem       int64           `json:"pointsToRedeem"`
	PointsDiscountAmount decimal.Decimal `json:"pointsDiscountAmount"`
	MaxAllowedDiscount   decimal.Decimal `json:"maxAllowedDiscount"`
	Capped               bool            `json:"capped"`
}

var hundred = decimal.NewFromInt(100)

// Redeem clamps requested to the available balance and to the share of the
// discounted subtotal the programme allows, then re-derives the points from
// the final discount so both figures always agree.
func Redeem(requested, available int64, settings Settings, subtotal, currentDiscount decimal.Decimal) Redemption {
	if available < 0 {
		available = 0
	}
	points := min(max(requested, 0), available)

	maxAllowed := subtotal.Sub(currentDiscount).Mul(settings.MaxRedemptionPercent).Div(hundred)
	if maxAllowed.IsNegative() {
		maxAllowed = decimal.Zero
	}

	out := Redemption{
		RequestedPoints:      requested,
		PointsDiscountAmount: decimal.Zero,
		MaxAllowedDiscount:   maxAllowed.Round(2),
	}
	if !settings.RedemptionValue.IsPositive() || points == 0 {
		return out
	}

	raw := decimal.NewFromInt(points).Mul(settings.RedemptionValue)
	final := decimal.Min(raw, maxAllowed)

	out.Capped = final.LessThan(raw)
	out.PointsToRedeem = final.Div(settings.RedemptionValue).Floor().IntPart()
	out.PointsDiscountAmount = final.Round(2)
	return out
}

// RedeemAll redeems the whole available balance, subject to the same caps.
func RedeemAll(available int64, settings Settings, subtotal, currentDiscount decimal.Decimal) Redemption {
	return Redeem(available, available, settings, subtotal, currentDiscount)
}

// CheckMinimum rejects a non-zero redemption below the programme minimum.
func CheckMinimum(points int64, settings Settings) error {
	if points == 0 || settings.RedemptionMinimum <= 0 {
		return nil
	}
	if points < settings.RedemptionMinimum {
		return fmt.Errorf("at least %d points must be redeemed", settings.RedemptionMinimum)
	}
	return nil
}
