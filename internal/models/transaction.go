// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoyaltyPayment is append-only. The period bounds are whatever the payer
// reported and are not checked against earlier payments.
type RoyaltyPayment struct {
	ID              uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LicenseID       uint64    `json:"license_id" gorm:"not null;index"`
	Payer           string    `json:"payer" gorm:"size:128;not null;index"`
	ReportedRevenue int64     `json:"reported_revenue" gorm:"not null"`
	Amount          int64     `json:"amount" gorm:"not null"`
	PlatformFee     int64     `json:"platform_fee" gorm:"not null"`
	OwnerShare      int64     `json:"owner_share" gorm:"not null"`
	PaidAt          int64     `json:"paid_at" gorm:"not null;index"`
	PeriodStart     int64     `json:"period_start"`
	PeriodEnd       int64     `json:"period_end"`
	CreatedAt       time.Time `json:"created_at"`
}

type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending"
	SettlementSettled SettlementStatus = "settled"
	SettlementFailed  SettlementStatus = "failed"
)

// Settlement is one leg queued for an external processor. It is written in
// the transaction of the operation that moved the value and sent only after
// that transaction commits. DebitRef and PayoutRef hold the processor ids of
// the halves already sent.
type Settlement struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Payer     string           `json:"payer" gorm:"size:128;not null;index"`
	Payee     string           `json:"payee" gorm:"size:128;not null;index"`
	Amount    int64            `json:"amount" gorm:"not null"`
	Currency  string           `json:"currency" gorm:"size:3;not null"`
	Status    SettlementStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	DebitRef  string           `json:"debit_ref,omitempty" gorm:"size:64"`
	PayoutRef string           `json:"payout_ref,omitempty" gorm:"size:64"`
	Attempts  int              `json:"attempts" gorm:"not null"`
	LastError string           `json:"last_error,omitempty" gorm:"type:text"`
	Timestamps
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
