package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the payment data access interface. Reads backing
// the reconciliation guard go straight to the database; none of them
// may be served from a cache.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// GetLatestByOrder returns the most recent payment for the order.
	GetLatestByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	// GetPaidByOrder returns the paid payment for the order, if any.
	GetPaidByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	ListByOrderAndStatus(ctx context.Context, orderID uuid.UUID, status Status) ([]Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new gorm-backed payment repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, p *Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) GetLatestByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get latest payment: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) GetPaidByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, StatusPaid).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get paid payment: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) ListByOrderAndStatus(ctx context.Context, orderID uuid.UUID, status Status) ([]Payment, error) {
	var payments []Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, status).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result := r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("update payment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
