package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Service exposes payment state to sibling modules.
type Service struct {
	repo Repository
}

// NewService creates a new payment service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// HasPaid reports whether the order has a successful payment.
func (s *Service) HasPaid(ctx context.Context, orderID uuid.UUID) (bool, error) {
	_, err := s.repo.GetPaidByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PaidPayment returns the order's successful payment.
func (s *Service) PaidPayment(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	return s.repo.GetPaidByOrder(ctx, orderID)
}
