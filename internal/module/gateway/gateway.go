package gateway

import (
	"context"
	"errors"
	"net/url"

	"github.com/shopspring/decimal"
)

// Common gateway errors.
var (
	ErrGatewayNotFound    = errors.New("gateway not found")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrRefundRejected     = errors.New("refund rejected by gateway")
)

var decimalHundred = decimal.NewFromInt(100)

// PaymentKind classifies what a callback settles.
type PaymentKind string

const (
	KindOrder       PaymentKind = "order"
	KindRefund      PaymentKind = "refund"
	KindCardRenewal PaymentKind = "card_renewal"
)

// ReturnStatus is the normalized classification of a single gateway
// callback. It is produced once per callback and never persisted.
//
// Valid reports whether the callback is cryptographically genuine.
// A genuine callback that reports a negative outcome has Valid=true
// and Paid=false; the two failure modes must not be conflated.
type ReturnStatus struct {
	Paid       bool
	Valid      bool
	CanRetry   bool
	Authorized bool
	Kind       PaymentKind
}

// Callback carries the raw material of one return/notify event.
type Callback struct {
	// Params are the query or form parameters of the callback.
	Params url.Values
	// Body is the raw request body for signed webhook payloads.
	Body []byte
	// Signature is the transport-level signature header, if any.
	Signature string
	// MerchantID identifies the merchant the payment belongs to.
	MerchantID string
	// Kind is the expected payment kind, resolved from the payment record.
	Kind PaymentKind
}

// RefundRequest asks the gateway to move money back to the customer.
type RefundRequest struct {
	// GatewayRef is the gateway-side payment reference (trade no,
	// payment intent id).
	GatewayRef string
	// RefundID is our refund identifier, used as the gateway dedup key.
	RefundID string
	Amount   decimal.Decimal
	Currency string
	Reason   string
}

// Gateway is a payment gateway integration. Verify is pure
// classification; CancelAuthorization and Refund are the only
// mutations this service ever requests from a gateway.
type Gateway interface {
	Name() string
	Verify(ctx context.Context, cb Callback) (ReturnStatus, error)
	CancelAuthorization(ctx context.Context, gatewayRef string) error
	Refund(ctx context.Context, req RefundRequest) error
}
