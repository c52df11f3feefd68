package accounting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is a derived financial record created once a payment or refund
// reaches a paid terminal state. The correlation key carries a unique
// index so a concurrent duplicate creation surfaces as a conflict
// instead of a second row.
type Entry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	// CorrelationKey is "order:<orderId>" or "refund:<refundId>".
	CorrelationKey string     `gorm:"type:varchar(80);not null;uniqueIndex" json:"correlationKey"`
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"orderId"`
	RefundID       *uuid.UUID `gorm:"type:uuid" json:"refundId,omitempty"`
	Lines          []Line     `gorm:"foreignKey:EntryID" json:"lines"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Line is one ledger line of an accounting entry.
type Line struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EntryID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"entryId"`
	ProductID  string          `gorm:"type:varchar(64);not null" json:"productId"`
	MerchantID string          `gorm:"type:varchar(64);not null" json:"merchantId"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	PriceNet   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceNet"`
	PriceVat   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceVat"`
	PriceGross decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"priceGross"`
}

// TableName overrides the table name.
func (Entry) TableName() string {
	return "accounting_entries"
}

// TableName overrides the table name.
func (Line) TableName() string {
	return "accounting_lines"
}
