// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamps are bookkeeping wall-clock times kept by gorm. Ledger logic
// only ever looks at the logical heights stored in the records themselves.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source %T", value)
	}
}

// Hash32 is an opaque 32-byte commitment, stored as lowercase hex and
// exchanged in JSON as 0x-prefixed hex.
type Hash32 [32]byte

func ParseHash32(s string) (Hash32, error) {
	var h Hash32
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 64 {
		return h, fmt.Errorf("hash must be 32 bytes of hex, got %d characters", len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("invalid hash hex: %w", err)
	}
	return h, nil
}

func (h Hash32) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash32) Value() (driver.Value, error) {
	return hex.EncodeToString(h[:]), nil
}

func (h *Hash32) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case nil:
		*h = Hash32{}
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("unsupported Hash32 source %T", value)
	}
	parsed, err := ParseHash32(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h Hash32) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHash32(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Enums
type LicenseType string

// License types are informational; no rule depends on them.
const (
	LicenseTypeExclusive    LicenseType = "exclusive"
	LicenseTypeNonExclusive LicenseType = "non_exclusive"
	LicenseTypeSublicense   LicenseType = "sublicense"
)

type LicenseState string

const (
	LicenseStateCreated    LicenseState = "created"
	LicenseStateActive     LicenseState = "active"
	LicenseStateExpired    LicenseState = "expired"
	LicenseStateTerminated LicenseState = "terminated"
)

// Basis-point limits.
const (
	BasisPoints       = 10000
	MaxAssetRoyaltyBp = 5000
	MaxPlatformFeeBp  = 1000
)
