package payment

import (
	"context"
	"errors"

	"github.com/commercekit/checkout/internal/module/accounting"
	"github.com/commercekit/checkout/internal/module/order"
	"github.com/commercekit/checkout/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Intent is a side effect emitted by the reconciler as data. The
// decision state machine never runs side effects inline; a separate
// executor attempts each intent independently and swallows its own
// failures, so a defect in one executor cannot change an already
// decided redirect.
type Intent interface {
	Name() string
}

// SendReceiptIntent asks for a receipt email for the order.
type SendReceiptIntent struct {
	Order *order.Order
}

// Name returns the intent name.
func (SendReceiptIntent) Name() string { return "receipt" }

// CreateAccountingIntent asks for the order's accounting entry.
type CreateAccountingIntent struct {
	Order *order.Order
}

// Name returns the intent name.
func (CreateAccountingIntent) Name() string { return "accounting" }

// ReceiptSender sends a receipt for a paid order.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, o *order.Order) error
}

// AccountingWriter creates the order's accounting entry at most once.
type AccountingWriter interface {
	CreateForOrder(ctx context.Context, o *order.Order) error
}

// OrderAccountant flags an order as accounted.
type OrderAccountant interface {
	MarkAccounted(ctx context.Context, id uuid.UUID) error
}

// EffectExecutor runs side-effect intents. Every intent is
// best-effort: failures are logged and counted, never propagated.
type EffectExecutor struct {
	receipts   ReceiptSender
	accounting AccountingWriter
	orders     OrderAccountant
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewEffectExecutor creates a new side-effect executor.
func NewEffectExecutor(receipts ReceiptSender, acc AccountingWriter, orders OrderAccountant, m *metrics.Metrics, logger *zap.Logger) *EffectExecutor {
	return &EffectExecutor{
		receipts:   receipts,
		accounting: acc,
		orders:     orders,
		metrics:    m,
		logger:     logger,
	}
}

// Execute attempts each intent once, independently.
func (e *EffectExecutor) Execute(ctx context.Context, intents []Intent) {
	for _, intent := range intents {
		switch it := intent.(type) {
		case SendReceiptIntent:
			e.sendReceipt(ctx, it)
		case CreateAccountingIntent:
			e.createAccounting(ctx, it)
		default:
			e.logger.Error("unknown side-effect intent", zap.String("intent", intent.Name()))
		}
	}
}

func (e *EffectExecutor) sendReceipt(ctx context.Context, it SendReceiptIntent) {
	if err := e.receipts.SendReceipt(ctx, it.Order); err != nil {
		e.record("receipt", "error")
		e.logger.Error("receipt send failed",
			zap.String("order_id", it.Order.ID.String()), zap.Error(err))
		return
	}
	e.record("receipt", "ok")
}

func (e *EffectExecutor) createAccounting(ctx context.Context, it CreateAccountingIntent) {
	err := e.accounting.CreateForOrder(ctx, it.Order)
	if err != nil {
		if errors.Is(err, accounting.ErrEntryExists) {
			// Concurrent callback already created the entry.
			e.record("accounting", "duplicate")
			return
		}
		e.record("accounting", "error")
		e.logger.Error("accounting entry creation failed",
			zap.String("order_id", it.Order.ID.String()), zap.Error(err))
		return
	}
	e.record("accounting", "ok")

	if err := e.orders.MarkAccounted(ctx, it.Order.ID); err != nil {
		e.logger.Warn("mark order accounted failed",
			zap.String("order_id", it.Order.ID.String()), zap.Error(err))
	}
}

func (e *EffectExecutor) record(effect, status string) {
	if e.metrics != nil {
		e.metrics.RecordSideEffect(effect, status)
	}
}
