package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the order data access interface.
type Repository interface {
	// GetWithItems returns the order with its line items preloaded.
	GetWithItems(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetByIDs returns the orders for the given ids, items preloaded.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)
	// UpdateStatus sets the order status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// MarkAccounted flags the order as accounted.
	MarkAccounted(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new gorm-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *gormRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error) {
	var orders []Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN ?", ids).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return orders, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *gormRepository) MarkAccounted(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", id).
		Update("accounted", true)
	if result.Error != nil {
		return fmt.Errorf("mark order accounted: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
