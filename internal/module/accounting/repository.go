package accounting

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrEntryExists signals that an entry for the correlation key was
// already created. It is a non-fatal branch, never an abort.
var ErrEntryExists = errors.New("accounting entry already exists")

// Repository defines the accounting data access interface.
type Repository interface {
	// Create inserts the entry with its lines. A correlation-key
	// conflict is returned as ErrEntryExists.
	Create(ctx context.Context, entry *Entry) error
	// GetByCorrelationKey returns the entry for the key, or nil.
	GetByCorrelationKey(ctx context.Context, key string) (*Entry, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new gorm-backed accounting repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, entry *Entry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrEntryExists, entry.CorrelationKey)
		}
		return fmt.Errorf("create accounting entry: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByCorrelationKey(ctx context.Context, key string) (*Entry, error) {
	var entry Entry
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&entry, "correlation_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get accounting entry: %w", err)
	}
	return &entry, nil
}
