package merchant

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrConfigNotFound is returned when no configuration exists for a namespace.
var ErrConfigNotFound = errors.New("merchant config not found")

// Repository defines the merchant configuration data access interface.
type Repository interface {
	GetByNamespace(ctx context.Context, namespace string) (*Config, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new gorm-backed merchant repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByNamespace(ctx context.Context, namespace string) (*Config, error) {
	var cfg Config
	err := r.db.WithContext(ctx).First(&cfg, "namespace = ?", namespace).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("get merchant config: %w", err)
	}
	return &cfg, nil
}
