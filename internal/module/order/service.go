package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service provides read access to orders plus the peer mutations the
// reconciliation flow is allowed to request.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new order service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetWithItems returns the order with its line items.
func (s *Service) GetWithItems(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetWithItems(ctx, id)
}

// GetByIDs returns the orders for the given ids.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// ResolveMerchantID resolves the merchant from the order's first line
// item. Reconciliation fails closed on an unresolvable merchant.
func (s *Service) ResolveMerchantID(o *Order) (string, error) {
	if o == nil || len(o.Items) == 0 {
		return "", ErrMerchantUnresolvable
	}
	merchantID := o.Items[0].MerchantID
	if merchantID == "" {
		return "", ErrMerchantUnresolvable
	}
	return merchantID, nil
}

// MarkPaid transitions the order to paid.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.UpdateStatus(ctx, id, StatusPaid); err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	s.logger.Info("order marked paid", zap.String("order_id", id.String()))
	return nil
}

// MarkRefunded transitions the order to refunded.
func (s *Service) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.UpdateStatus(ctx, id, StatusRefunded); err != nil {
		return fmt.Errorf("mark order refunded: %w", err)
	}
	s.logger.Info("order marked refunded", zap.String("order_id", id.String()))
	return nil
}

// MarkAccounted flags the order as accounted.
func (s *Service) MarkAccounted(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkAccounted(ctx, id)
}
