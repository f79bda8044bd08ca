package orders

import (
	"context"

	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
	"github.com/samber/lo"
)

// SaveInput is the draft to persist plus submission options.
type SaveInput struct {
	Draft Draft `json:"order"`
	SaveOptions
}

// SaveResult is the upstream acknowledgement and the draft exactly as sent.
type SaveResult struct {
	upstream.SaveOrderResponse
	Order Draft `json:"order"`
}

// Save revalidates the draft, recomputes every derived figure and sends the
// full order upstream. Nothing is sent when validation fails.
func (s *service) Save(ctx context.Context, orderID string, input SaveInput) (*SaveResult, error) {
	ctx = s.logg.WithOrderID(ctx, orderID)
	draft := normalizeForSave(input.Draft)
	draft.ID = orderID

	if err := ValidateForSave(draft, input.SaveOptions); err != nil {
		return nil, err
	}

	req := s.saveRequest(ctx, draft, input.SaveOptions)
	resp, err := s.upstream.SaveOrder(ctx, orderID, req)
	if err != nil {
		s.logg.Error(ctx, "orders.save_failed", err)
		return nil, upstreamError(err, "save order")
	}
	if resp.FBRInvoiceNumber != "" {
		draft.Invoice.FBRInvoiceNumber = resp.FBRInvoiceNumber
	}
	s.logg.Info(ctx, "orders.saved")
	return &SaveResult{SaveOrderResponse: *resp, Order: draft}, nil
}

func normalizeForSave(d Draft) Draft {
	out := d.Clone()
	out.Items = lo.Map(out.Items, func(item taxengine.LineItem, _ int) taxengine.LineItem {
		return taxengine.RecomputeTotal(item)
	})
	out.Recalculate()
	return out
}

func (s *service) saveRequest(ctx context.Context, draft Draft, opts SaveOptions) upstream.SaveOrderRequest {
	seller := s.sellerOrEmpty(ctx)
	return upstream.SaveOrderRequest{
		Order:                  ToUpstream(draft),
		SkipFBRSubmission:      opts.SkipFBRSubmission,
		IsProductionSubmission: opts.IsProductionSubmission,
		ProductionToken:        opts.ProductionToken,
		SellerNTNCNIC:          seller.NTNCNIC,
		SellerBusinessName:     seller.BusinessName,
		SellerProvince:         seller.Province,
		SellerAddress:          seller.Address,
	}
}
