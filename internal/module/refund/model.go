package refund

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a refund.
type Status string

const (
	// StatusDraft is the initial state. Draft refunds do NOT reserve
	// quantity against the conservation invariant.
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Refund is a request to return money for part of an order. Once
// confirmed its items are immutable and count permanently against the
// order items' refundable quantity.
type Refund struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"orderId"`
	Status  Status    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	// Settled means the gateway has moved the money back.
	Settled bool `gorm:"not null;default:false" json:"settled"`
	// Gateway and GatewayRef identify the payment this refund reverses.
	Gateway    string       `gorm:"type:varchar(32)" json:"gateway"`
	GatewayRef string       `gorm:"type:varchar(128)" json:"gatewayRef"`
	Items      []RefundItem `gorm:"foreignKey:RefundID" json:"items"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// RefundItem is one refunded order line. Prices are row totals
// computed as unit price times the requested quantity.
type RefundItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RefundID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"refundId"`
	OrderItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"orderItemId"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	PriceNet    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceNet"`
	PriceVat    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceVat"`
	PriceGross  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceGross"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// TableName overrides the table name.
func (Refund) TableName() string {
	return "refunds"
}

// TableName overrides the table name.
func (RefundItem) TableName() string {
	return "refund_items"
}

// Total returns the gross total of the refund.
func (r *Refund) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.PriceGross)
	}
	return total
}
