package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/commercekit/checkout/internal/module/order"
	"github.com/commercekit/checkout/internal/shared/config"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// SenderResolver yields the per-namespace sender identity printed on
// the receipt.
type SenderResolver interface {
	ReceiptSender(ctx context.Context, namespace string) (name, email string, err error)
}

// Notifier asks the messaging backend to send a receipt email. The
// backend call sits behind a circuit breaker: receipts are best effort
// and a struggling mail service must not slow the callback path down.
type Notifier struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	senders SenderResolver
	logger  *zap.Logger
}

// NewNotifier creates a new receipt notifier.
func NewNotifier(cfg *config.MessagingConfig, senders SenderResolver, logger *zap.Logger) *Notifier {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	breakerTimeout := cfg.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "messaging",
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("messaging circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Notifier{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		senders: senders,
		logger:  logger,
	}
}

type receiptLine struct {
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	PriceNet   decimal.Decimal `json:"priceNet"`
	PriceVat   decimal.Decimal `json:"priceVat"`
	PriceGross decimal.Decimal `json:"priceGross"`
}

type receiptRequest struct {
	OrderID     string        `json:"orderId"`
	Namespace   string        `json:"namespace"`
	Recipient   string        `json:"recipient"`
	SenderName  string        `json:"senderName,omitempty"`
	SenderEmail string        `json:"senderEmail,omitempty"`
	Currency    string        `json:"currency"`
	Lines       []receiptLine `json:"lines"`
}

// SendReceipt posts a receipt request to the messaging backend.
func (n *Notifier) SendReceipt(ctx context.Context, o *order.Order) error {
	req := receiptRequest{
		OrderID:   o.ID.String(),
		Namespace: o.Namespace,
		Recipient: o.CustomerEmail,
		Currency:  o.Currency,
	}
	for _, item := range o.Items {
		req.Lines = append(req.Lines, receiptLine{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceNet:   item.PriceNet,
			PriceVat:   item.PriceVat,
			PriceGross: item.PriceGross,
		})
	}

	// A missing sender config falls back to the platform default on
	// the messaging side.
	if n.senders != nil {
		name, email, err := n.senders.ReceiptSender(ctx, o.Namespace)
		if err != nil {
			n.logger.Warn("receipt sender lookup failed",
				zap.String("namespace", o.Namespace), zap.Error(err))
		} else {
			req.SenderName = name
			req.SenderEmail = email
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal receipt request: %w", err)
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, payload)
	})
	return err
}

func (n *Notifier) post(ctx context.Context, payload []byte) error {
	url := n.baseURL + "/v1/messages/receipt"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build receipt request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send receipt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("messaging backend returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
