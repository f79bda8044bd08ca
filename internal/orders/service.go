package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/orderdesk-backend/internal/previews"
	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/angelmondragon/orderdesk-backend/internal/totals"
	"github.com/angelmondragon/orderdesk-backend/pkg/cache"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	"github.com/angelmondragon/orderdesk-backend/pkg/metrics"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
)

// Upstream is the subset of the ERP client the order service depends on.
type Upstream interface {
	GetOrder(ctx context.Context, orderID string) (*upstream.Order, error)
	SaveOrder(ctx context.Context, orderID string, req upstream.SaveOrderRequest) (*upstream.SaveOrderResponse, error)
	DuplicateOrder(ctx context.Context, orderID string) (*upstream.DuplicateOrderResponse, error)
	ListProducts(ctx context.Context, sku string) ([]upstream.Product, error)
	ListVariants(ctx context.Context, productID string) ([]upstream.Variant, error)
	ListAddons(ctx context.Context, productID string) ([]upstream.ProductAddon, error)
	GetLoyaltySettings(ctx context.Context) (*upstream.LoyaltySettings, error)
	GetLoyaltyPoints(ctx context.Context, userID string) (*upstream.LoyaltyPoints, error)
	GetFBRSettings(ctx context.Context) (*upstream.FBRSettings, error)
	GetSellerInfo(ctx context.Context) (*upstream.SellerInfo, error)
	PreviewFBR(ctx context.Context, payload any) (json.RawMessage, error)
}

// Service edits orders held by the ERP.
type Service interface {
	Load(ctx context.Context, orderID string) (*Draft, error)
	Save(ctx context.Context, orderID string, input SaveInput) (*SaveResult, error)
	Duplicate(ctx context.Context, orderID string) (*upstream.DuplicateOrderResponse, error)
	AddItem(ctx context.Context, draft Draft, input AddItemInput) (*Draft, error)
	RemoveItem(ctx context.Context, draft Draft, index int) (*Draft, error)
	Resolve(ctx context.Context, input ResolveInput) (*taxengine.Result, error)
	ApplyEdit(ctx context.Context, input EditInput) (*EditResult, error)
	RefreshPricing(ctx context.Context, draft Draft) (*RefreshResult, error)
	Totals(draft Draft) totals.Totals
	RedeemPoints(ctx context.Context, input RedeemInput) (*RedeemResult, error)
	PreviewFBR(ctx context.Context, input PreviewInput) (*PreviewResult, error)
	ListPreviews(ctx context.Context, params previews.ListParams) (*previews.ListResult, error)
}

// Config tunes caching, fan-out and invoice defaults.
type Config struct {
	CatalogTTL         time.Duration
	SettingsTTL        time.Duration
	RefreshConcurrency int
	DefaultSaleType    string
	DefaultInvoiceType string
	DefaultUOM         string
	StorePreviews      bool
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Upstream  Upstream
	Previews  previews.Service
	Cache     *cache.Cache
	Sequencer *taxengine.Sequencer
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
	Config    Config
}

type service struct {
	upstream  Upstream
	previews  previews.Service
	cache     *cache.Cache
	sequencer *taxengine.Sequencer
	metrics   *metrics.Metrics
	logg      *logger.Logger
	cfg       Config
	now       func() time.Time
}

// NewService constructs an order service. Cache, metrics and previews are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Upstream == nil {
		return nil, fmt.Errorf("upstream client is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	cfg := params.Config
	if cfg.RefreshConcurrency <= 0 {
		cfg.RefreshConcurrency = 4
	}
	seq := params.Sequencer
	if seq == nil {
		seq = taxengine.NewSequencer(30*time.Minute, 10*time.Minute)
	}
	return &service{
		upstream:  params.Upstream,
		previews:  params.Previews,
		cache:     params.Cache,
		sequencer: seq,
		metrics:   params.Metrics,
		logg:      params.Logger,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

// upstreamError keeps typed upstream errors intact and wraps anything else as a dependency failure.
func upstreamError(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func (s *service) Load(ctx context.Context, orderID string) (*Draft, error) {
	order, err := s.upstream.GetOrder(ctx, orderID)
	if err != nil {
		return nil, upstreamError(err, "load order")
	}
	draft := FromUpstream(*order)
	return &draft, nil
}

func (s *service) Duplicate(ctx context.Context, orderID string) (*upstream.DuplicateOrderResponse, error) {
	resp, err := s.upstream.DuplicateOrder(ctx, orderID)
	if err != nil {
		return nil, upstreamError(err, "duplicate order")
	}
	return resp, nil
}

func (s *service) Totals(draft Draft) totals.Totals {
	return totals.Aggregate(draft.Items, draft.OrderLevel)
}
