package payment

import (
	"time"

	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a payment.
type Status string

const (
	StatusCreated    Status = "created"
	StatusAuthorized Status = "authorized"
	StatusPaid       Status = "paid"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status is terminal.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled || s == StatusFailed
}

// Payment is one gateway charge attempt against an order.
type Payment struct {
	ID      uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID uuid.UUID           `gorm:"type:uuid;not null;index" json:"orderId"`
	Kind    gateway.PaymentKind `gorm:"type:varchar(20);not null;default:'order'" json:"kind"`
	// Gateway is the registry name of the integration that owns this payment.
	Gateway string `gorm:"type:varchar(32);not null" json:"gateway"`
	// GatewayRef is the gateway-side payment reference.
	GatewayRef string          `gorm:"type:varchar(128)" json:"gatewayRef"`
	Status     Status          `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency   string          `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// TableName overrides the table name.
func (Payment) TableName() string {
	return "payments"
}
