package orders

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// ResolveInput is a single edit against a standalone line item. Sequence,
// when set, is the client's monotonic token for this item.
type ResolveInput struct {
	OrderID  string             `json:"orderId,omitempty"`
	Item     taxengine.LineItem `json:"item"`
	Edit     taxengine.Edit     `json:"edit"`
	Sequence *uint64            `json:"sequence,omitempty"`
}

// EditInput is a single edit against the item at Index of a draft.
type EditInput struct {
	Draft    Draft          `json:"order"`
	Index    int            `json:"index"`
	Edit     taxengine.Edit `json:"edit"`
	Sequence *uint64        `json:"sequence,omitempty"`
}

// EditResult is the draft after the edit and the rule that produced it.
type EditResult struct {
	Order    Draft          `json:"order"`
	Rule     taxengine.Rule `json:"rule"`
	Deferred bool           `json:"deferred"`
}

// RefreshFailure is an item whose price could not be refreshed.
type RefreshFailure struct {
	Index  int    `json:"index"`
	ItemID string `json:"itemId"`
	Reason string `json:"reason"`
}

// RefreshResult is the repriced draft; failed items are left as they were.
type RefreshResult struct {
	Order  Draft            `json:"order"`
	Failed []RefreshFailure `json:"failed"`
}

func (s *service) AddItem(ctx context.Context, draft Draft, input AddItemInput) (*Draft, error) {
	item, err := s.buildItem(ctx, input)
	if err != nil {
		return nil, err
	}
	out := draft.Clone()
	out.Items = append(out.Items, item)
	out.Recalculate()
	return &out, nil
}

func (s *service) RemoveItem(_ context.Context, draft Draft, index int) (*Draft, error) {
	if index < 0 || index >= len(draft.Items) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item index out of range").
			WithDetails(map[string]any{"index": index, "count": len(draft.Items)})
	}
	out := draft.Clone()
	out.Items = append(out.Items[:index:index], out.Items[index+1:]...)
	out.Recalculate()
	return &out, nil
}

func sequenceKey(orderID, itemID string) string {
	return orderID + "/" + itemID
}

func (s *service) Resolve(ctx context.Context, input ResolveInput) (*taxengine.Result, error) {
	if reason := taxengine.RejectValue(input.Edit.Field, input.Edit.Value); reason != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]any{"edit.value": reason, "field": string(input.Edit.Field)})
	}
	if input.Sequence != nil {
		if strings.TrimSpace(input.Item.ID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sequence requires an item id").
				WithDetails(map[string]any{"item.id": "is required when sequence is set"})
		}
		key := sequenceKey(input.OrderID, input.Item.ID)
		if !s.sequencer.Observe(key, *input.Sequence) {
			latest, _ := s.sequencer.Latest(key)
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "edit superseded by a newer one").
				WithDetails(map[string]any{"sequence": *input.Sequence, "latest": latest})
		}
	}

	result := taxengine.Resolve(input.Item, input.Edit)
	s.metrics.IncEdit(string(input.Edit.Field), string(result.Rule))
	if result.Rule == taxengine.RuleIgnored {
		ctx = s.logg.WithItemID(ctx, input.Item.ID)
		s.logg.Debug(s.logg.WithField(ctx, "field", string(input.Edit.Field)), "orders.edit_ignored")
	}
	return &result, nil
}

func (s *service) ApplyEdit(ctx context.Context, input EditInput) (*EditResult, error) {
	draft := input.Draft
	if input.Index < 0 || input.Index >= len(draft.Items) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item index out of range").
			WithDetails(map[string]any{"index": input.Index, "count": len(draft.Items)})
	}

	result, err := s.Resolve(ctx, ResolveInput{
		OrderID:  draft.ID,
		Item:     draft.Items[input.Index],
		Edit:     input.Edit,
		Sequence: input.Sequence,
	})
	if err != nil {
		return nil, err
	}

	out := draft.Clone()
	out.Items[input.Index] = result.Item
	out.Recalculate()
	return &EditResult{Order: out, Rule: result.Rule, Deferred: result.Deferred}, nil
}

// RefreshPricing reprices every item from the catalog concurrently. An item
// that cannot be repriced keeps its current values and is listed in Failed.
func (s *service) RefreshPricing(ctx context.Context, draft Draft) (*RefreshResult, error) {
	out := draft.Clone()
	if len(out.Items) == 0 {
		out.Recalculate()
		return &RefreshResult{Order: out, Failed: []RefreshFailure{}}, nil
	}

	products, catalogErr := s.catalog(ctx)

	var mu sync.Mutex
	failed := []RefreshFailure{}
	fail := func(index int, itemID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, RefreshFailure{Index: index, ItemID: itemID, Reason: failureReason(err)})
	}

	p := pool.New().WithMaxGoroutines(s.cfg.RefreshConcurrency)
	for i := range out.Items {
		p.Go(func() {
			item := out.Items[i]
			if catalogErr != nil {
				fail(i, item.ID, catalogErr)
				return
			}
			repriced, err := s.reprice(ctx, item, products)
			if err != nil {
				fail(i, item.ID, err)
				return
			}
			out.Items[i] = repriced
		})
	}
	p.Wait()

	slices.SortFunc(failed, func(a, b RefreshFailure) int { return cmp.Compare(a.Index, b.Index) })
	if len(failed) > 0 {
		ctx = s.logg.WithOrderID(ctx, draft.ID)
		s.logg.Warn(s.logg.WithField(ctx, "failed_items", strconv.Itoa(len(failed))), "orders.refresh_pricing_partial")
	}

	out.Recalculate()
	return &RefreshResult{Order: out, Failed: failed}, nil
}

func failureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

func findProductIn(products []upstream.Product, productID string) (upstream.Product, bool) {
	return lo.Find(products, func(p upstream.Product) bool { return p.ID == productID })
}
