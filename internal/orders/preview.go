package orders

import (
	"context"
	"strings"

	"github.com/angelmondragon/orderdesk-backend/internal/fbr"
	"github.com/angelmondragon/orderdesk-backend/internal/previews"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// PreviewInput requests an invoice preview for a draft. LocalOnly skips the
// tax-submission service.
type PreviewInput struct {
	Draft     Draft  `json:"order"`
	LocalOnly bool   `json:"localOnly"`
	RequestID string `json:"-"`
}

// PreviewResult is the preview plus the editor toggles derived from it.
type PreviewResult struct {
	Preview             fbr.Preview     `json:"preview"`
	Flags               []fbr.LineFlags `json:"flags"`
	CustomBuyerProvince bool            `json:"customBuyerProvince"`
	SnapshotID          *uuid.UUID      `json:"snapshotId,omitempty"`
}

func (s *service) PreviewFBR(ctx context.Context, input PreviewInput) (*PreviewResult, error) {
	draft := normalizeForSave(input.Draft)
	ctx = s.logg.WithOrderID(ctx, draft.ID)

	sellerInfo := s.sellerOrEmpty(ctx)
	header := s.previewHeader(ctx, draft)
	seller := fbr.SellerInfo{
		NTNCNIC:      sellerInfo.NTNCNIC,
		BusinessName: sellerInfo.BusinessName,
		Province:     sellerInfo.Province,
		Address:      sellerInfo.Address,
	}
	preview := fbr.BuildPreview(draft.Items, header, seller)

	if !input.LocalOnly {
		enhanced, err := s.remotePreview(ctx, draft, preview)
		if err != nil {
			s.metrics.IncPreview(string(fbr.SourceRemote), "error")
			s.logg.Error(ctx, "orders.fbr_preview_failed", err)
			return nil, err
		}
		preview = enhanced
	}
	s.metrics.IncPreview(string(preview.Source), "ok")

	result := &PreviewResult{
		Preview: preview,
		Flags: lo.Map(preview.Items, func(line fbr.Line, _ int) fbr.LineFlags {
			return fbr.FlagsFor(line.SaleType, line.SROScheduleNo)
		}),
		CustomBuyerProvince: strings.TrimSpace(preview.Header.BuyerProvince) != "" && !fbr.IsKnownProvince(preview.Header.BuyerProvince),
	}

	if s.previews != nil && s.cfg.StorePreviews {
		snap, err := s.previews.Record(ctx, preview, input.RequestID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "orders.preview_snapshot_failed")
		} else {
			result.SnapshotID = &snap.ID
		}
	}
	return result, nil
}

// remotePreview sends the items in serial order so the remote lines line up
// with the local preview when merged.
func (s *service) remotePreview(ctx context.Context, draft Draft, local fbr.Preview) (fbr.Preview, error) {
	ordered := draft
	ordered.Items = fbr.SortItems(draft.Items)
	req := upstream.SaveOrderRequest{
		Order:              ToUpstream(ordered),
		SellerNTNCNIC:      local.Seller.NTNCNIC,
		SellerBusinessName: local.Seller.BusinessName,
		SellerProvince:     local.Seller.Province,
		SellerAddress:      local.Seller.Address,
	}
	req.InvoiceType = local.Header.InvoiceType
	req.InvoiceDate = local.Header.InvoiceDate
	req.ScenarioID = local.Header.ScenarioID

	raw, err := s.upstream.PreviewFBR(ctx, req)
	if err != nil {
		return fbr.Preview{}, upstreamError(err, "fbr preview")
	}
	invoice, err := fbr.DecodeInvoice(raw)
	if err != nil {
		return fbr.Preview{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode fbr preview").
			WithDetails(map[string]any{"step": upstream.StepConnection})
	}
	return fbr.Enhance(invoice, local), nil
}

func (s *service) previewHeader(ctx context.Context, draft Draft) fbr.OrderHeader {
	var settings upstream.FBRSettings
	if loaded, err := s.fbrSettings(ctx); err == nil && loaded != nil {
		settings = *loaded
	} else if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "orders.fbr_settings_unavailable")
	}

	inv := draft.Invoice
	return fbr.OrderHeader{
		OrderID:               draft.ID,
		OrderNumber:           draft.OrderNumber,
		InvoiceType:           firstNonEmpty(inv.InvoiceType, settings.DefaultInvoiceType, s.cfg.DefaultInvoiceType),
		InvoiceDate:           firstNonEmpty(inv.InvoiceDate, s.now().Format("2006-01-02")),
		InvoiceRefNo:          inv.InvoiceRefNo,
		ScenarioID:            firstNonEmpty(inv.ScenarioID, settings.ScenarioID),
		BuyerNTNCNIC:          inv.BuyerNTNCNIC,
		BuyerBusinessName:     firstNonEmpty(inv.BuyerBusinessName, draft.CustomerName),
		BuyerProvince:         inv.BuyerProvince,
		BuyerAddress:          inv.BuyerAddress,
		BuyerRegistrationType: inv.BuyerRegistrationType,
		DefaultSaleType:       firstNonEmpty(settings.DefaultSaleType, s.cfg.DefaultSaleType),
		DefaultUOM:            firstNonEmpty(settings.DefaultUOM, s.cfg.DefaultUOM),
	}
}

func (s *service) ListPreviews(ctx context.Context, params previews.ListParams) (*previews.ListResult, error) {
	if s.previews == nil {
		return &previews.ListResult{Items: []previews.Snapshot{}}, nil
	}
	return s.previews.List(ctx, params)
}

func firstNonEmpty(values ...string) string {
	v, _ := lo.Find(values, func(v string) bool { return strings.TrimSpace(v) != "" })
	return strings.TrimSpace(v)
}
