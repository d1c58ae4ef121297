// internal/models/revenue.go
package models

// IPRevenue accumulates what an asset's owner has earned across all of its
// licenses, net of platform fees.
type IPRevenue struct {
	AssetID       uint64 `json:"asset_id" gorm:"primaryKey;autoIncrement:false"`
	TotalEarned   int64  `json:"total_earned" gorm:"not null"`
	TotalLicenses uint64 `json:"total_licenses" gorm:"not null"`
	LastPaymentAt int64  `json:"last_payment_at" gorm:"not null"`
	Timestamps
}

func (IPRevenue) TableName() string { return "ip_revenues" }

// LicenseUsage is mutated only by royalty payments.
type LicenseUsage struct {
	LicenseID        uint64 `json:"license_id" gorm:"primaryKey;autoIncrement:false"`
	UsageCount       uint64 `json:"usage_count" gorm:"not null"`
	RevenueGenerated int64  `json:"revenue_generated" gorm:"not null"`
	LastUsageAt      int64  `json:"last_usage_at" gorm:"not null"`
	RoyaltiesPaid    int64  `json:"royalties_paid" gorm:"not null"`
	Timestamps
}
