// internal/models/user.go
package models

// Account is an identity's balance in the built-in value transfer ledger.
type Account struct {
	Identity string `json:"identity" gorm:"primaryKey;size:128"`
	Balance  int64  `json:"balance" gorm:"not null"`
	Timestamps
}
