package previews

import (
	"context"

	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for preview snapshots.
type Repository interface {
	Create(ctx context.Context, snapshot *models.FBRPreviewSnapshot) error
	FindByRequest(ctx context.Context, orderID, requestID string) (*models.FBRPreviewSnapshot, error)
	ListByOrder(ctx context.Context, params listSnapshotsParams) ([]models.FBRPreviewSnapshot, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a snapshot repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listSnapshotsParams struct {
	OrderID string
	Limit   int
	Cursor  *pagination.Cursor
}

func (r *repositoryImpl) Create(ctx context.Context, snapshot *models.FBRPreviewSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *repositoryImpl) FindByRequest(ctx context.Context, orderID, requestID string) (*models.FBRPreviewSnapshot, error) {
	var row models.FBRPreviewSnapshot
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND request_id = ?", orderID, requestID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ListByOrder(ctx context.Context, params listSnapshotsParams) ([]models.FBRPreviewSnapshot, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.FBRPreviewSnapshot{}).Where("order_id = ?", params.OrderID)
	if params.Cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID.String())
	}

	var rows []models.FBRPreviewSnapshot
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(rows, params.Limit, func(row models.FBRPreviewSnapshot) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}
