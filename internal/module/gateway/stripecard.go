package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// StripeConfig holds Stripe gateway configuration.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

// StripeGateway is the card gateway integration backed by Stripe.
type StripeGateway struct {
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway.
func NewStripeGateway(cfg *StripeConfig, logger *zap.Logger) *StripeGateway {
	stripe.Key = cfg.APIKey
	return &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// Name returns the gateway name.
func (g *StripeGateway) Name() string {
	return "stripecard"
}

// Verify classifies a Stripe callback. Signed webhook payloads are
// authenticated with the webhook secret; browser returns carry no
// signature, so the payment intent is fetched fresh instead of
// trusting the redirect parameters.
func (g *StripeGateway) Verify(ctx context.Context, cb Callback) (ReturnStatus, error) {
	kind := cb.Kind
	if kind == "" {
		kind = KindOrder
	}

	if len(cb.Body) > 0 {
		event, err := webhook.ConstructEvent(cb.Body, cb.Signature, g.webhookSecret)
		if err != nil {
			g.logger.Warn("stripe signature verification failed", zap.Error(err))
			return ReturnStatus{Valid: false, Kind: kind}, nil
		}
		return g.classifyEvent(event, kind), nil
	}

	intentID := cb.Params.Get("payment_intent")
	if intentID == "" {
		return ReturnStatus{Valid: false, Kind: kind}, nil
	}

	pi, err := paymentintent.Get(intentID, nil)
	if err != nil {
		return ReturnStatus{}, fmt.Errorf("get payment intent: %w", err)
	}

	return g.classifyIntentStatus(pi.Status, kind), nil
}

func (g *StripeGateway) classifyEvent(event stripe.Event, kind PaymentKind) ReturnStatus {
	switch event.Type {
	case "payment_intent.succeeded", "charge.refunded":
		return ReturnStatus{Valid: true, Paid: true, Kind: kind}
	case "payment_intent.amount_capturable_updated", "setup_intent.succeeded":
		return ReturnStatus{Valid: true, Authorized: true, Kind: kind}
	case "payment_intent.payment_failed":
		return ReturnStatus{Valid: true, CanRetry: true, Kind: kind}
	default:
		return ReturnStatus{Valid: true, Kind: kind}
	}
}

func (g *StripeGateway) classifyIntentStatus(status stripe.PaymentIntentStatus, kind PaymentKind) ReturnStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return ReturnStatus{Valid: true, Paid: true, Kind: kind}
	case stripe.PaymentIntentStatusRequiresCapture:
		return ReturnStatus{Valid: true, Authorized: true, Kind: kind}
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation:
		return ReturnStatus{Valid: true, CanRetry: true, Kind: kind}
	default:
		return ReturnStatus{Valid: true, Kind: kind}
	}
}

// CancelAuthorization cancels an uncaptured payment intent.
func (g *StripeGateway) CancelAuthorization(ctx context.Context, gatewayRef string) error {
	_, err := paymentintent.Cancel(gatewayRef, nil)
	if err != nil {
		return fmt.Errorf("cancel payment intent: %w", err)
	}
	return nil
}

// Refund refunds a captured payment intent, full or partial.
func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) error {
	// Stripe amounts are in the smallest currency unit.
	cents := req.Amount.Mul(decimalHundred).IntPart()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.GatewayRef),
		Amount:        stripe.Int64(cents),
	}
	params.AddMetadata("refund_id", req.RefundID)
	if req.Reason != "" {
		params.Reason = stripe.String(req.Reason)
	}

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("%w: %v", ErrRefundRejected, err)
	}
	return nil
}
