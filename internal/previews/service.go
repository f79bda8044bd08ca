package previews

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/orderdesk-backend/internal/fbr"
	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Service records and lists preview snapshots.
type Service interface {
	Record(ctx context.Context, preview fbr.Preview, requestID string) (*Snapshot, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// Snapshot is the API view of a stored preview.
type Snapshot struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          string          `json:"orderId"`
	OrderNumber      string          `json:"orderNumber,omitempty"`
	Source           fbr.Source      `json:"source"`
	ItemCount        int             `json:"itemCount"`
	ValueExcludingST decimal.Decimal `json:"valueSalesExcludingST"`
	SalesTax         decimal.Decimal `json:"salesTax"`
	TotalValues      decimal.Decimal `json:"totalValues"`
	MismatchCount    int             `json:"mismatchCount"`
	RequestID        string          `json:"requestId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	Preview          json.RawMessage `json:"preview"`
}

// ListParams configures pagination for an order's snapshots.
type ListParams struct {
	OrderID string
	Limit   int
	Cursor  string
}

// ListResult wraps returned snapshots and the cursor for the next page.
type ListResult struct {
	Items  []Snapshot `json:"items"`
	Cursor string     `json:"cursor"`
}

// NewService wires snapshot dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "previews repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, preview fbr.Preview, requestID string) (*Snapshot, error) {
	orderID := strings.TrimSpace(preview.Header.OrderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	payload, err := json.Marshal(preview)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode preview")
	}

	row := &models.FBRPreviewSnapshot{
		ID:               uuid.New(),
		OrderID:          orderID,
		OrderNumber:      preview.Header.OrderNumber,
		Source:           string(preview.Source),
		ItemCount:        len(preview.Items),
		ValueExcludingST: preview.Summary.ValueSalesExcludingST,
		SalesTax:         preview.Summary.SalesTax,
		TotalValues:      preview.Summary.TotalValues,
		MismatchCount:    CountMismatches(preview),
		Payload:          string(payload),
		RequestID:        requestID,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if requestID == "" || !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store preview snapshot")
		}
		// A replayed request keeps the snapshot it recorded the first time.
		existing, findErr := s.repo.FindByRequest(ctx, orderID, requestID)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load replayed preview snapshot")
		}
		row = existing
	}
	snap := toSnapshot(*row)
	return &snap, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	orderID := strings.TrimSpace(params.OrderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	query := listSnapshotsParams{
		OrderID: orderID,
		Limit:   params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByOrder(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list preview snapshots")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  lo.Map(rows, func(row models.FBRPreviewSnapshot, _ int) Snapshot { return toSnapshot(row) }),
		Cursor: cursor,
	}, nil
}

// CountMismatches is the number of lines whose remote figures disagreed with the local ones.
func CountMismatches(preview fbr.Preview) int {
	return lo.CountBy(preview.Items, func(line fbr.Line) bool { return len(line.Mismatches) > 0 })
}

func toSnapshot(row models.FBRPreviewSnapshot) Snapshot {
	return Snapshot{
		ID:               row.ID,
		OrderID:          row.OrderID,
		OrderNumber:      row.OrderNumber,
		Source:           fbr.Source(row.Source),
		ItemCount:        row.ItemCount,
		ValueExcludingST: row.ValueExcludingST,
		SalesTax:         row.SalesTax,
		TotalValues:      row.TotalValues,
		MismatchCount:    row.MismatchCount,
		RequestID:        row.RequestID,
		CreatedAt:        row.CreatedAt,
		Preview:          json.RawMessage(row.Payload),
	}
}
