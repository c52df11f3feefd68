package merchant

import (
	"time"

	"github.com/google/uuid"
)

// Config is the per-namespace merchant configuration.
type Config struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Namespace string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"namespace"`
	// ServiceReturnURL overrides the platform UI as redirect destination.
	// Empty means the user lands on the platform's own checkout pages.
	ServiceReturnURL   string    `gorm:"type:varchar(512)" json:"serviceReturnUrl"`
	ReceiptSenderName  string    `gorm:"type:varchar(128)" json:"receiptSenderName"`
	ReceiptSenderEmail string    `gorm:"type:varchar(255)" json:"receiptSenderEmail"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// TableName overrides the table name.
func (Config) TableName() string {
	return "merchant_configs"
}
