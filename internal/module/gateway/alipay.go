package gateway

import (
	"context"
	"fmt"

	"github.com/go-pay/gopay"
	"github.com/go-pay/gopay/alipay"
	"go.uber.org/zap"
)

// AlipayConfig holds Alipay gateway configuration.
type AlipayConfig struct {
	AppID           string // Application ID
	PrivateKey      string // RSA2 private key (PEM format)
	AlipayPublicKey string // Alipay public key for verification (PEM format)
	IsProd          bool   // Production environment flag
}

// AlipayGateway is the redirect gateway integration backed by Alipay.
type AlipayGateway struct {
	client    *alipay.Client
	publicKey string
	logger    *zap.Logger
}

// NewAlipayGateway creates a new Alipay gateway.
func NewAlipayGateway(cfg *AlipayConfig, logger *zap.Logger) (*AlipayGateway, error) {
	client, err := alipay.NewClient(cfg.AppID, cfg.PrivateKey, cfg.IsProd)
	if err != nil {
		return nil, fmt.Errorf("create alipay client: %w", err)
	}

	// Set public key for auto signature verification
	client.AutoVerifySign([]byte(cfg.AlipayPublicKey))

	return &AlipayGateway{
		client:    client,
		publicKey: cfg.AlipayPublicKey,
		logger:    logger,
	}, nil
}

// Name returns the gateway name.
func (g *AlipayGateway) Name() string {
	return "alipay"
}

// Verify checks the RSA2 signature over the callback parameters and
// classifies the reported trade status.
func (g *AlipayGateway) Verify(ctx context.Context, cb Callback) (ReturnStatus, error) {
	kind := cb.Kind
	if kind == "" {
		kind = KindOrder
	}

	bm := make(gopay.BodyMap)
	for key := range cb.Params {
		bm.Set(key, cb.Params.Get(key))
	}

	ok, err := alipay.VerifySign(g.publicKey, bm)
	if err != nil || !ok {
		if err != nil {
			g.logger.Warn("alipay signature verification failed", zap.Error(err))
		}
		return ReturnStatus{Valid: false, Kind: kind}, nil
	}

	switch bm.Get("trade_status") {
	case "TRADE_SUCCESS", "TRADE_FINISHED":
		return ReturnStatus{Valid: true, Paid: true, Kind: kind}, nil
	case "WAIT_BUYER_PAY":
		return ReturnStatus{Valid: true, CanRetry: true, Kind: kind}, nil
	case "TRADE_CLOSED":
		return ReturnStatus{Valid: true, Kind: kind}, nil
	default:
		return ReturnStatus{Valid: true, Kind: kind}, nil
	}
}

// CancelAuthorization closes an unpaid or authorized trade.
func (g *AlipayGateway) CancelAuthorization(ctx context.Context, gatewayRef string) error {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", gatewayRef)

	resp, err := g.client.TradeClose(ctx, bm)
	if err != nil {
		return fmt.Errorf("close trade: %w", err)
	}

	if resp.Response.Code != "10000" {
		return fmt.Errorf("alipay close error: %s - %s", resp.Response.Code, resp.Response.Msg)
	}

	return nil
}

// Refund refunds a settled trade, full or partial.
func (g *AlipayGateway) Refund(ctx context.Context, req RefundRequest) error {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", req.GatewayRef)
	bm.Set("out_request_no", req.RefundID)
	bm.Set("refund_amount", req.Amount.StringFixed(2))
	if req.Reason != "" {
		bm.Set("refund_reason", req.Reason)
	}

	resp, err := g.client.TradeRefund(ctx, bm)
	if err != nil {
		return fmt.Errorf("refund trade: %w", err)
	}

	if resp.Response.Code != "10000" {
		return fmt.Errorf("%w: %s - %s", ErrRefundRejected, resp.Response.Code, resp.Response.Msg)
	}

	return nil
}
