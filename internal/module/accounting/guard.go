package accounting

import (
	"context"
	"fmt"

	"github.com/commercekit/checkout/internal/module/order"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Guard creates accounting entries at most once per correlation key.
// The reconciliation flow may run twice for the same order (async
// webhook plus synchronous browser return); the database unique index
// on the correlation key turns the second creation into ErrEntryExists.
type Guard struct {
	repo   Repository
	logger *zap.Logger
}

// NewGuard creates a new accounting idempotency guard.
func NewGuard(repo Repository, logger *zap.Logger) *Guard {
	return &Guard{
		repo:   repo,
		logger: logger,
	}
}

// OrderKey returns the correlation key for an order entry.
func OrderKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

// RefundKey returns the correlation key for a refund entry.
func RefundKey(refundID uuid.UUID) string {
	return "refund:" + refundID.String()
}

// CreateOnce creates the entry built by build unless one already
// exists for the key. The duplicate branch returns ErrEntryExists and
// must be treated as a no-op by callers.
func (g *Guard) CreateOnce(ctx context.Context, key string, build func() (*Entry, error)) (*Entry, error) {
	entry, err := g.build(key, build)
	if err != nil {
		return nil, err
	}

	if err := g.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	g.logger.Info("accounting entry created",
		zap.String("correlation_key", key),
		zap.Int("lines", len(entry.Lines)))
	return entry, nil
}

func (g *Guard) build(key string, build func() (*Entry, error)) (*Entry, error) {
	entry, err := build()
	if err != nil {
		return nil, fmt.Errorf("build accounting entry: %w", err)
	}
	entry.CorrelationKey = key
	return entry, nil
}

// CreateForOrder creates the entry for a paid order, one line per
// order item.
func (g *Guard) CreateForOrder(ctx context.Context, o *order.Order) error {
	_, err := g.CreateOnce(ctx, OrderKey(o.ID), func() (*Entry, error) {
		entry := &Entry{OrderID: o.ID}
		for _, item := range o.Items {
			entry.Lines = append(entry.Lines, Line{
				ProductID:  item.ProductID,
				MerchantID: item.MerchantID,
				Quantity:   item.Quantity,
				PriceNet:   item.PriceNet,
				PriceVat:   item.PriceVat,
				PriceGross: item.PriceGross,
			})
		}
		return entry, nil
	})
	return err
}

// CreateForRefund creates the entry for a settled refund with the
// caller-supplied lines.
func (g *Guard) CreateForRefund(ctx context.Context, refundID uuid.UUID, orderID uuid.UUID, lines []Line) error {
	_, err := g.CreateOnce(ctx, RefundKey(refundID), func() (*Entry, error) {
		return &Entry{
			OrderID:  orderID,
			RefundID: &refundID,
			Lines:    lines,
		}, nil
	})
	return err
}
