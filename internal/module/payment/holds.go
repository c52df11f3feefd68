package payment

import (
	"context"

	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/commercekit/checkout/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GatewayResolver resolves a gateway integration by name.
type GatewayResolver interface {
	Get(name string) (gateway.Gateway, error)
}

// HoldCanceller cancels lingering authorization holds left behind by a
// failed card-renewal flow. Each hold is cancelled independently and
// there is no rollback: a hold cancelled before a later failure stays
// cancelled.
type HoldCanceller struct {
	payments Repository
	gateways GatewayResolver
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewHoldCanceller creates a new hold canceller.
func NewHoldCanceller(payments Repository, gateways GatewayResolver, m *metrics.Metrics, logger *zap.Logger) *HoldCanceller {
	return &HoldCanceller{
		payments: payments,
		gateways: gateways,
		metrics:  m,
		logger:   logger,
	}
}

// CancelAll cancels every payment for the order currently in
// authorized state. It returns how many cancellations succeeded and
// how many failed; the caller routes the user to a failure page on
// any failure.
func (h *HoldCanceller) CancelAll(ctx context.Context, orderID uuid.UUID) (succeeded, failed int) {
	holds, err := h.payments.ListByOrderAndStatus(ctx, orderID, StatusAuthorized)
	if err != nil {
		h.logger.Error("list authorization holds failed",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return 0, 1
	}

	for i := range holds {
		hold := &holds[i]
		if err := h.cancelOne(ctx, hold); err != nil {
			failed++
			h.record(false)
			h.logger.Error("authorization hold cancellation failed",
				zap.String("order_id", orderID.String()),
				zap.String("payment_id", hold.ID.String()),
				zap.String("gateway", hold.Gateway),
				zap.Error(err))
			continue
		}
		succeeded++
		h.record(true)
	}

	return succeeded, failed
}

func (h *HoldCanceller) cancelOne(ctx context.Context, hold *Payment) error {
	gw, err := h.gateways.Get(hold.Gateway)
	if err != nil {
		return err
	}

	if err := gw.CancelAuthorization(ctx, hold.GatewayRef); err != nil {
		return err
	}

	if err := h.payments.UpdateStatus(ctx, hold.ID, StatusCancelled); err != nil {
		// The gateway hold is gone; a stale local row is logged, not fatal.
		h.logger.Warn("persist cancelled hold failed",
			zap.String("payment_id", hold.ID.String()), zap.Error(err))
	}

	return nil
}

func (h *HoldCanceller) record(ok bool) {
	if h.metrics != nil {
		h.metrics.RecordHoldCancel(ok)
	}
}
