package payment

import (
	"context"
	"errors"

	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/commercekit/checkout/internal/module/order"
	"github.com/commercekit/checkout/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderPort is the slice of the order service the reconciler consumes.
type OrderPort interface {
	GetWithItems(ctx context.Context, id uuid.UUID) (*order.Order, error)
	ResolveMerchantID(o *order.Order) (string, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
}

// MerchantPort resolves the per-namespace redirect override.
type MerchantPort interface {
	ServiceReturnURL(ctx context.Context, namespace string) (string, error)
}

// EffectRunner executes side-effect intents, best-effort.
type EffectRunner interface {
	Execute(ctx context.Context, intents []Intent)
}

// HoldCancellerPort cancels the order's authorization holds.
type HoldCancellerPort interface {
	CancelAll(ctx context.Context, orderID uuid.UUID) (succeeded, failed int)
}

// RefundView is the refund state the reconciler needs for correlation.
type RefundView struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Settled    bool
	Gateway    string
	GatewayRef string
}

// RefundPort is the slice of the refund service the reconciler consumes.
// Settle must be idempotent: replayed callbacks hit it more than once.
type RefundPort interface {
	View(ctx context.Context, refundID uuid.UUID) (RefundView, error)
	Settle(ctx context.Context, refundID uuid.UUID) error
}

// ReturnResult is the outcome of reconciling one callback.
type ReturnResult struct {
	RedirectURL string
	Destination Destination
	PaymentPaid bool
}

// Reconciler orchestrates a single return/callback event. Callbacks
// arrive unordered and possibly duplicated from the browser return and
// the server-to-server notify; the fresh terminal-state check absorbs
// replays before any side effect runs.
type Reconciler struct {
	payments  Repository
	orders    OrderPort
	merchants MerchantPort
	gateways  GatewayResolver
	resolver  *RedirectResolver
	effects   EffectRunner
	holds     HoldCancellerPort
	refunds   RefundPort
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewReconciler creates a new return reconciler.
func NewReconciler(
	payments Repository,
	orders OrderPort,
	merchants MerchantPort,
	gateways GatewayResolver,
	resolver *RedirectResolver,
	effects EffectRunner,
	holds HoldCancellerPort,
	refunds RefundPort,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		payments:  payments,
		orders:    orders,
		merchants: merchants,
		gateways:  gateways,
		resolver:  resolver,
		effects:   effects,
		holds:     holds,
		refunds:   refunds,
		metrics:   m,
		logger:    logger,
	}
}

// ReconcileOrderReturn reconciles an order payment callback identified
// by its checkout stamp.
func (r *Reconciler) ReconcileOrderReturn(ctx context.Context, stamp string, cb gateway.Callback) ReturnResult {
	orderID, err := ParseStamp(stamp)
	if err != nil {
		// Fatal input: generic failure, no backend calls.
		r.logger.Warn("unparsable checkout stamp", zap.String("stamp", stamp))
		return r.genericFailure(gateway.KindOrder)
	}

	o, err := r.orders.GetWithItems(ctx, orderID)
	if err != nil {
		r.logger.Warn("order lookup failed",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return r.genericFailure(gateway.KindOrder)
	}

	// Terminal paid state is queried fresh, never cached. A replayed
	// callback for an already paid order returns the success redirect
	// with no further side effects.
	if _, err := r.payments.GetPaidByOrder(ctx, orderID); err == nil {
		return r.finish(ctx, DestSuccess, o, gateway.KindOrder, true)
	} else if !errors.Is(err, ErrPaymentNotFound) {
		r.logger.Error("paid payment lookup failed",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return r.finish(ctx, DestFailure, o, gateway.KindOrder, false)
	}

	p, err := r.payments.GetLatestByOrder(ctx, orderID)
	if err != nil {
		r.logger.Warn("no payment for order",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return r.finish(ctx, DestFailure, o, gateway.KindOrder, false)
	}

	if p.Status == StatusFailed || p.Status == StatusCancelled {
		return r.finish(ctx, DestFailure, o, p.Kind, false)
	}

	// Merchant must be resolvable from the order's first line item;
	// otherwise reconciliation fails closed.
	merchantID, err := r.orders.ResolveMerchantID(o)
	if err != nil {
		r.logger.Error("merchant not resolvable",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return r.finish(ctx, DestFailure, o, p.Kind, false)
	}
	cb.MerchantID = merchantID
	cb.Kind = p.Kind

	gw, err := r.gateways.Get(p.Gateway)
	if err != nil {
		r.logger.Error("gateway not registered",
			zap.String("gateway", p.Gateway), zap.Error(err))
		return r.finish(ctx, DestFailure, o, p.Kind, false)
	}

	status, err := gw.Verify(ctx, cb)
	if err != nil {
		r.logger.Error("gateway verification failed",
			zap.String("order_id", orderID.String()),
			zap.String("gateway", p.Gateway),
			zap.Error(err))
		return r.finish(ctx, DestFailure, o, p.Kind, false)
	}
	if r.metrics != nil {
		r.metrics.RecordGatewayVerify(p.Gateway, status.Valid)
	}

	dest := Decide(status)

	switch dest {
	case DestSuccess:
		r.transition(ctx, p.ID, StatusPaid)
		if err := r.orders.MarkPaid(ctx, o.ID); err != nil {
			r.logger.Warn("mark order paid failed",
				zap.String("order_id", o.ID.String()), zap.Error(err))
		}
		r.effects.Execute(ctx, []Intent{
			SendReceiptIntent{Order: o},
			CreateAccountingIntent{Order: o},
		})

	case DestSummary:
		// Retryable: no state transition, no side effects.

	case DestCardUpdateSuccess:
		// The renewal hold must never stay authorized while the user
		// is told everything went fine.
		_, failedCount := r.holds.CancelAll(ctx, o.ID)
		if failedCount > 0 {
			dest = DestCardUpdateFailed
			r.transition(ctx, p.ID, StatusFailed)
		} else {
			r.transition(ctx, p.ID, StatusCancelled)
		}

	default:
		r.transition(ctx, p.ID, StatusFailed)
	}

	return r.finish(ctx, dest, o, p.Kind, dest == DestSuccess)
}

// ReconcileRefundReturn reconciles a refund callback identified by its
// checkout stamp.
func (r *Reconciler) ReconcileRefundReturn(ctx context.Context, stamp string, cb gateway.Callback) ReturnResult {
	refundID, err := ParseStamp(stamp)
	if err != nil {
		r.logger.Warn("unparsable refund stamp", zap.String("stamp", stamp))
		return r.genericFailure(gateway.KindRefund)
	}

	view, err := r.refunds.View(ctx, refundID)
	if err != nil {
		r.logger.Warn("refund lookup failed",
			zap.String("refund_id", refundID.String()), zap.Error(err))
		return r.genericFailure(gateway.KindRefund)
	}

	o, err := r.orders.GetWithItems(ctx, view.OrderID)
	if err != nil {
		r.logger.Warn("order lookup failed",
			zap.String("order_id", view.OrderID.String()), zap.Error(err))
		return r.genericFailure(gateway.KindRefund)
	}

	// Replay of an already settled refund.
	if view.Settled {
		return r.finish(ctx, DestSuccess, o, gateway.KindRefund, true)
	}

	merchantID, err := r.orders.ResolveMerchantID(o)
	if err != nil {
		r.logger.Error("merchant not resolvable",
			zap.String("order_id", o.ID.String()), zap.Error(err))
		return r.finish(ctx, DestFailure, o, gateway.KindRefund, false)
	}
	cb.MerchantID = merchantID
	cb.Kind = gateway.KindRefund

	gw, err := r.gateways.Get(view.Gateway)
	if err != nil {
		r.logger.Error("gateway not registered",
			zap.String("gateway", view.Gateway), zap.Error(err))
		return r.finish(ctx, DestFailure, o, gateway.KindRefund, false)
	}

	status, err := gw.Verify(ctx, cb)
	if err != nil {
		r.logger.Error("gateway verification failed",
			zap.String("refund_id", refundID.String()), zap.Error(err))
		return r.finish(ctx, DestFailure, o, gateway.KindRefund, false)
	}
	if r.metrics != nil {
		r.metrics.RecordGatewayVerify(view.Gateway, status.Valid)
	}

	if !status.Valid {
		return r.finish(ctx, DestFailure, o, gateway.KindRefund, false)
	}

	switch {
	case status.Paid:
		if err := r.refunds.Settle(ctx, refundID); err != nil {
			r.logger.Error("refund settlement failed",
				zap.String("refund_id", refundID.String()), zap.Error(err))
		}
		return r.finish(ctx, DestSuccess, o, gateway.KindRefund, true)
	case status.CanRetry:
		return r.finish(ctx, DestSummary, o, gateway.KindRefund, false)
	default:
		return r.finish(ctx, DestFailure, o, gateway.KindRefund, false)
	}
}

func (r *Reconciler) transition(ctx context.Context, paymentID uuid.UUID, status Status) {
	if err := r.payments.UpdateStatus(ctx, paymentID, status); err != nil {
		r.logger.Error("payment status transition failed",
			zap.String("payment_id", paymentID.String()),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func (r *Reconciler) finish(ctx context.Context, dest Destination, o *order.Order, kind gateway.PaymentKind, paid bool) ReturnResult {
	overrideURL, err := r.merchants.ServiceReturnURL(ctx, o.Namespace)
	if err != nil {
		r.logger.Warn("service return url lookup failed",
			zap.String("namespace", o.Namespace), zap.Error(err))
		overrideURL = ""
	}

	if r.metrics != nil {
		r.metrics.RecordCallback(string(kind), string(dest))
	}

	return ReturnResult{
		RedirectURL: r.resolver.Resolve(dest, o, overrideURL),
		Destination: dest,
		PaymentPaid: paid,
	}
}

func (r *Reconciler) genericFailure(kind gateway.PaymentKind) ReturnResult {
	if r.metrics != nil {
		r.metrics.RecordCallback(string(kind), string(DestFailure))
	}
	return ReturnResult{
		RedirectURL: r.resolver.FailureURL(),
		Destination: DestFailure,
	}
}
