// internal/models/ip_asset.go
package models

// IntellectualProperty is a registered asset. Only its current Owner may
// change it; ownership is transferable.
type IntellectualProperty struct {
	ID            uint64 `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Owner         string `json:"owner" gorm:"size:128;not null;index"`
	Title         string `json:"title" gorm:"size:255;not null"`
	Description   string `json:"description" gorm:"type:text"`
	IPType        string `json:"ip_type" gorm:"size:50;index"`
	RegisteredAt  int64  `json:"registered_at" gorm:"not null"`
	ExpiresAt     *int64 `json:"expires_at,omitempty"`
	RoyaltyRateBp uint16 `json:"royalty_rate_bp" gorm:"not null"`
	Active        bool   `json:"active" gorm:"not null;index"`
	MetadataURI   string `json:"metadata_uri,omitempty" gorm:"size:512"`
	Timestamps
}

func (IntellectualProperty) TableName() string { return "ip_assets" }
