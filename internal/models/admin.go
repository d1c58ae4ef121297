// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlatformStateID is the primary key of the single platform state row.
const PlatformStateID = 1

// PlatformState holds the fee settings, the undistributed fee balance and
// the id sequences. Next*ID is the id the next successful creation receives.
type PlatformState struct {
	ID              uint   `json:"-" gorm:"primaryKey;autoIncrement:false"`
	FeeRateBp       uint16 `json:"fee_rate_bp" gorm:"not null"`
	AccumulatedFees int64  `json:"accumulated_fees" gorm:"not null"`
	NextAssetID     uint64 `json:"next_asset_id" gorm:"not null"`
	NextLicenseID   uint64 `json:"next_license_id" gorm:"not null"`
	NextPaymentID   uint64 `json:"next_payment_id" gorm:"not null"`
	Timestamps
}

func (PlatformState) TableName() string { return "platform_state" }

type AuditLog struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Caller       string    `json:"caller" gorm:"size:128;index"`
	Action       string    `json:"action" gorm:"size:100;not null;index"`
	ResourceType string    `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   string    `json:"resource_id" gorm:"size:64;index"`
	Status       int       `json:"status"`
	RequestID    string    `json:"request_id" gorm:"size:64"`
	NewValues    JSONB     `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string    `json:"ip_address" gorm:"size:45"`
	UserAgent    string    `json:"user_agent" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
