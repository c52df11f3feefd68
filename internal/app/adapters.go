package app

import (
	"context"

	"github.com/commercekit/checkout/internal/module/payment"
	"github.com/commercekit/checkout/internal/module/refund"
	"github.com/google/uuid"
)

// refundAdapter exposes the refund service as the payment module's
// refund port without making the modules import each other.
type refundAdapter struct {
	refunds *refund.Service
}

func newRefundAdapter(refunds *refund.Service) payment.RefundPort {
	return &refundAdapter{refunds: refunds}
}

func (a *refundAdapter) View(ctx context.Context, refundID uuid.UUID) (payment.RefundView, error) {
	r, err := a.refunds.Get(ctx, refundID)
	if err != nil {
		return payment.RefundView{}, err
	}
	return payment.RefundView{
		ID:         r.ID,
		OrderID:    r.OrderID,
		Settled:    r.Settled,
		Gateway:    r.Gateway,
		GatewayRef: r.GatewayRef,
	}, nil
}

func (a *refundAdapter) Settle(ctx context.Context, refundID uuid.UUID) error {
	return a.refunds.Settle(ctx, refundID)
}

// paymentRefAdapter exposes the payment service as the refund module's
// payment reference port.
type paymentRefAdapter struct {
	payments *payment.Service
}

func newPaymentRefAdapter(payments *payment.Service) refund.PaymentRefPort {
	return &paymentRefAdapter{payments: payments}
}

func (a *paymentRefAdapter) PaidPaymentRef(ctx context.Context, orderID uuid.UUID) (refund.PaymentRef, error) {
	p, err := a.payments.PaidPayment(ctx, orderID)
	if err != nil {
		return refund.PaymentRef{}, err
	}
	return refund.PaymentRef{
		Gateway:    p.Gateway,
		GatewayRef: p.GatewayRef,
		Currency:   p.Currency,
	}, nil
}
