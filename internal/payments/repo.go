package payments

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
)

// Repository persists payment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error)
	FindByID(ctx context.Context, id int64) (*models.PaymentRecord, error)
	FindActiveByOrder(ctx context.Context, orderID int64) (*models.PaymentRecord, error)
	Resolve(ctx context.Context, id int64, update Resolution) (bool, error)
}

// Resolution moves a pending payment to a final status.
type Resolution struct {
	Status     enums.PaymentStatus
	ResolvedBy int64
	ResolvedAt time.Time
	Reference  *string
	Reason     *string
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindActiveByOrder(ctx context.Context, orderID int64) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID, enums.ActivePaymentStatuses()).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Resolve only touches rows still pending; false means the payment was resolved elsewhere.
func (r *repository) Resolve(ctx context.Context, id int64, update Resolution) (bool, error) {
	updates := map[string]any{
		"status":      update.Status,
		"resolved_by": update.ResolvedBy,
		"resolved_at": update.ResolvedAt,
		"updated_at":  update.ResolvedAt,
	}
	if update.Reference != nil {
		updates["reference"] = *update.Reference
	}
	if update.Reason != nil {
		updates["rejection_reason"] = *update.Reason
	}
	res := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
