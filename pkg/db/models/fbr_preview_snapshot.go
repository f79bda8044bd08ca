package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FBRPreviewSnapshot is an audit copy of a generated tax-invoice preview.
type FBRPreviewSnapshot struct {
	ID               uuid.UUID       `gorm:"type:text;primaryKey"`
	OrderID          string          `gorm:"type:text;not null"`
	OrderNumber      string          `gorm:"type:text"`
	Source           string          `gorm:"type:text;not null"`
	ItemCount        int             `gorm:"not null;default:0"`
	ValueExcludingST decimal.Decimal `gorm:"column:value_excluding_st;type:numeric(18,2);not null;default:0"`
	SalesTax         decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	TotalValues      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	MismatchCount    int             `gorm:"not null;default:0"`
	Payload          string          `gorm:"type:text;not null"`
	RequestID        string          `gorm:"type:text"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName pins the table created by the migrations.
func (FBRPreviewSnapshot) TableName() string {
	return "fbr_preview_snapshots"
}
