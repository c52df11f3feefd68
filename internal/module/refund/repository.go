package refund

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the refund data access interface.
type Repository interface {
	Create(ctx context.Context, r *Refund) error
	GetByID(ctx context.Context, id uuid.UUID) (*Refund, error)
	// ListConfirmedByOrder returns the order's confirmed refunds with
	// items preloaded. Draft refunds are deliberately excluded: they
	// do not reserve quantity.
	ListConfirmedByOrder(ctx context.Context, orderID uuid.UUID) ([]Refund, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// Confirm transitions a draft to confirmed and records the gateway
	// payment it reverses. Only drafts transition.
	Confirm(ctx context.Context, id uuid.UUID, gatewayName, gatewayRef string) error
	MarkSettled(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new gorm-backed refund repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, refund *Refund) error {
	if err := r.db.WithContext(ctx).Create(refund).Error; err != nil {
		return fmt.Errorf("create refund: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Refund, error) {
	var refund Refund
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&refund, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("get refund: %w", err)
	}
	return &refund, nil
}

func (r *gormRepository) ListConfirmedByOrder(ctx context.Context, orderID uuid.UUID) ([]Refund, error) {
	var refunds []Refund
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ? AND status = ?", orderID, StatusConfirmed).
		Find(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("list confirmed refunds: %w", err)
	}
	return refunds, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result := r.db.WithContext(ctx).
		Model(&Refund{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("update refund status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRefundNotFound
	}
	return nil
}

func (r *gormRepository) Confirm(ctx context.Context, id uuid.UUID, gatewayName, gatewayRef string) error {
	result := r.db.WithContext(ctx).
		Model(&Refund{}).
		Where("id = ? AND status = ?", id, StatusDraft).
		Updates(map[string]interface{}{
			"status":      StatusConfirmed,
			"gateway":     gatewayName,
			"gateway_ref": gatewayRef,
		})
	if result.Error != nil {
		return fmt.Errorf("confirm refund: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRefundNotDraft
	}
	return nil
}

func (r *gormRepository) MarkSettled(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Refund{}).
		Where("id = ?", id).
		Update("settled", true)
	if result.Error != nil {
		return fmt.Errorf("mark refund settled: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRefundNotFound
	}
	return nil
}
