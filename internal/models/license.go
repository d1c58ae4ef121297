// internal/models/license.go
package models

// License is a time-bounded grant over an asset. Licensor is captured at
// creation and does not follow later ownership transfers of the asset.
type License struct {
	ID            uint64      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	AssetID       uint64      `json:"asset_id" gorm:"not null;index"`
	Licensee      string      `json:"licensee" gorm:"size:128;not null;index"`
	Licensor      string      `json:"licensor" gorm:"size:128;not null;index"`
	LicenseType   LicenseType `json:"license_type" gorm:"type:varchar(20);not null"`
	StartTime     int64       `json:"start_time" gorm:"not null"`
	EndTime       int64       `json:"end_time" gorm:"not null"`
	Territory     string      `json:"territory" gorm:"size:100"`
	FieldOfUse    string      `json:"field_of_use" gorm:"size:255"`
	RoyaltyRateBp uint16      `json:"royalty_rate_bp" gorm:"not null"`
	UpfrontFee    int64       `json:"upfront_fee" gorm:"not null"`
	Active        bool        `json:"active" gorm:"not null"`
	Accepted      bool        `json:"accepted" gorm:"not null"`
	AcceptedAt    *int64      `json:"accepted_at,omitempty"`
	TermsHash     Hash32      `json:"terms_hash" gorm:"type:varchar(64);not null"`
	Timestamps
}

// StateAt derives the lifecycle state at logical time now. A terminated
// license never becomes valid again.
func (l *License) StateAt(now int64) LicenseState {
	switch {
	case !l.Active:
		return LicenseStateTerminated
	case now < l.StartTime:
		return LicenseStateCreated
	case now > l.EndTime:
		return LicenseStateExpired
	default:
		return LicenseStateActive
	}
}

func (l *License) ValidAt(now int64) bool {
	return l.StateAt(now) == LicenseStateActive
}
