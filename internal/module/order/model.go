package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Order is owned by the order backend. This service reads it and only
// requests peer mutations (mark accounted), never item changes.
type Order struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Namespace     string      `gorm:"type:varchar(64);not null;index" json:"namespace"`
	UserID        string      `gorm:"type:varchar(64);not null" json:"userId"`
	CustomerEmail string      `gorm:"type:varchar(255)" json:"customerEmail"`
	Status        Status      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Currency      string      `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Accounted     bool        `gorm:"not null;default:false" json:"accounted"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// OrderItem is one order line. Quantity is the originally ordered
// quantity and is the ceiling for all refunds against this line for
// the lifetime of the order.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"orderId"`
	ProductID  string          `gorm:"type:varchar(64);not null" json:"productId"`
	MerchantID string          `gorm:"type:varchar(64);not null" json:"merchantId"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	PriceNet   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceNet"`
	PriceVat   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceVat"`
	PriceGross decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceGross"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// TableName overrides the table name.
func (Order) TableName() string {
	return "orders"
}

// TableName overrides the table name.
func (OrderItem) TableName() string {
	return "order_items"
}

// ItemByID returns the order item with the given id, or nil.
func (o *Order) ItemByID(orderItemID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == orderItemID {
			return &o.Items[i]
		}
	}
	return nil
}
