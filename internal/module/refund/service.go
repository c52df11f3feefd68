package refund

import (
	"context"
	"errors"
	"fmt"

	"github.com/commercekit/checkout/internal/module/accounting"
	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/commercekit/checkout/internal/module/order"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentRef identifies the gateway payment a refund reverses.
type PaymentRef struct {
	Gateway    string
	GatewayRef string
	Currency   string
}

// PaymentRefPort resolves the successful payment behind an order.
type PaymentRefPort interface {
	PaidPaymentRef(ctx context.Context, orderID uuid.UUID) (PaymentRef, error)
}

// ServiceOrderPort is the slice of the order service the refund
// service consumes.
type ServiceOrderPort interface {
	GetWithItems(ctx context.Context, id uuid.UUID) (*order.Order, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) error
}

// AccountingPort writes the compensating accounting entry for a
// settled refund. The write is expected to be idempotent per refund.
type AccountingPort interface {
	CreateForRefund(ctx context.Context, refundID, orderID uuid.UUID, lines []accounting.Line) error
}

// GatewayResolver looks up a registered payment gateway by name.
type GatewayResolver interface {
	Get(name string) (gateway.Gateway, error)
}

// Service confirms and settles refunds. Confirmation re-validates the
// quantity invariant, executes the money movement at the gateway, and
// only then makes the refund permanent.
type Service struct {
	refunds  Repository
	orders   ServiceOrderPort
	payments PaymentRefPort
	gateways GatewayResolver
	ledger   AccountingPort
	logger   *zap.Logger
}

// NewService creates a new refund service.
func NewService(refunds Repository, orders ServiceOrderPort, payments PaymentRefPort, gateways GatewayResolver, ledger AccountingPort, logger *zap.Logger) *Service {
	return &Service{
		refunds:  refunds,
		orders:   orders,
		payments: payments,
		gateways: gateways,
		ledger:   ledger,
		logger:   logger,
	}
}

// Get returns a refund with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Refund, error) {
	return s.refunds.GetByID(ctx, id)
}

// Confirm turns a draft into a confirmed refund. The quantity check is
// repeated here against the current set of confirmed refunds: the
// draft held no reservation, so a sibling confirmed in the meantime
// may have consumed the remaining quantity.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Refund, error) {
	r, err := s.refunds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusConfirmed {
		return nil, ErrAlreadyConfirmed
	}
	if r.Status != StatusDraft {
		return nil, ErrRefundNotDraft
	}

	ord, err := s.orders.GetWithItems(ctx, r.OrderID)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.refunds.ListConfirmedByOrder(ctx, r.OrderID)
	if err != nil {
		return nil, err
	}
	for _, item := range r.Items {
		orderItem := ord.ItemByID(item.OrderItemID)
		if orderItem == nil {
			return nil, fmt.Errorf("%w: %s", ErrOrderItemNotFound, item.OrderItemID)
		}
		if err := ValidateQuantity(orderItem, item.Quantity, confirmed); err != nil {
			return nil, err
		}
	}

	ref, err := s.payments.PaidPaymentRef(ctx, r.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotPaid, r.OrderID)
	}
	gw, err := s.gateways.Get(ref.Gateway)
	if err != nil {
		return nil, err
	}

	// Money moves before the state does. A rejected gateway refund
	// leaves the draft untouched so the caller can retry or cancel.
	if err := gw.Refund(ctx, gateway.RefundRequest{
		GatewayRef: ref.GatewayRef,
		RefundID:   r.ID.String(),
		Amount:     r.Total(),
		Currency:   ref.Currency,
		Reason:     "requested_by_customer",
	}); err != nil {
		s.logger.Error("gateway refund failed",
			zap.String("refund_id", r.ID.String()),
			zap.String("gateway", ref.Gateway),
			zap.Error(err))
		return nil, err
	}

	if err := s.refunds.Confirm(ctx, r.ID, ref.Gateway, ref.GatewayRef); err != nil {
		// The gateway already moved the money. Surface the error but
		// leave reconciliation to the refund callback path.
		return nil, err
	}
	r.Status = StatusConfirmed
	r.Gateway = ref.Gateway
	r.GatewayRef = ref.GatewayRef

	// Both gateways report the refund synchronously, so the entry can
	// settle right away. The callback path re-settles harmlessly.
	s.settle(ctx, r, ord)
	return r, nil
}

// Settle records that the gateway has returned the money. It is safe
// to call more than once: an already settled refund is a no-op, and
// the accounting write is deduplicated downstream.
func (s *Service) Settle(ctx context.Context, id uuid.UUID) error {
	r, err := s.refunds.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.Settled {
		return nil
	}
	if r.Status != StatusConfirmed {
		return fmt.Errorf("%w: settle requires a confirmed refund", ErrRefundNotDraft)
	}

	ord, err := s.orders.GetWithItems(ctx, r.OrderID)
	if err != nil {
		return err
	}
	s.settle(ctx, r, ord)
	return nil
}

// settle marks the refund settled and runs the follow-up bookkeeping.
// The follow-ups are best effort; a failed accounting write is logged
// and retried the next time the gateway calls back.
func (s *Service) settle(ctx context.Context, r *Refund, ord *order.Order) {
	if err := s.refunds.MarkSettled(ctx, r.ID); err != nil {
		s.logger.Error("marking refund settled failed",
			zap.String("refund_id", r.ID.String()), zap.Error(err))
		return
	}
	r.Settled = true

	lines := make([]accounting.Line, 0, len(r.Items))
	for _, item := range r.Items {
		orderItem := ord.ItemByID(item.OrderItemID)
		if orderItem == nil {
			continue
		}
		lines = append(lines, accounting.Line{
			ProductID:  orderItem.ProductID,
			MerchantID: orderItem.MerchantID,
			Quantity:   item.Quantity,
			PriceNet:   item.PriceNet.Neg(),
			PriceVat:   item.PriceVat.Neg(),
			PriceGross: item.PriceGross.Neg(),
		})
	}
	if err := s.ledger.CreateForRefund(ctx, r.ID, r.OrderID, lines); err != nil {
		if !errors.Is(err, accounting.ErrEntryExists) {
			s.logger.Error("refund accounting entry failed",
				zap.String("refund_id", r.ID.String()), zap.Error(err))
		}
	}
	if err := s.orders.MarkRefunded(ctx, r.OrderID); err != nil {
		s.logger.Warn("marking order refunded failed",
			zap.String("order_id", r.OrderID.String()), zap.Error(err))
	}
}
