// internal/services/commitment_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/javajoker/imi-ledger/internal/models"
)

// CommitmentService derives the Keccak-256 commitments licenses carry as
// their terms hash. The ledger itself treats the hash as opaque.
type CommitmentService struct {
	ledger *Ledger
}

// TermsDocument is the off-ledger text a license's terms hash commits to.
type TermsDocument struct {
	Text   string            `json:"text" validate:"required"`
	Fields map[string]string `json:"fields,omitempty"`
}

type TermsVerification struct {
	LicenseID uint64        `json:"license_id"`
	Expected  models.Hash32 `json:"expected"`
	Actual    models.Hash32 `json:"actual"`
	Match     bool          `json:"match"`
}

func NewCommitmentService(ledger *Ledger) *CommitmentService {
	return &CommitmentService{ledger: ledger}
}

func (s *CommitmentService) HashBytes(data []byte) models.Hash32 {
	var h models.Hash32
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	copy(h[:], hasher.Sum(nil))
	return h
}

// CommitTerms hashes the canonical JSON encoding of doc. Field keys are
// encoded in sorted order, so equal documents always hash equally.
func (s *CommitmentService) CommitTerms(doc *TermsDocument) (models.Hash32, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return models.Hash32{}, fmt.Errorf("failed to encode terms: %w", err)
	}
	return s.HashBytes(data), nil
}

// VerifyLicenseTerms checks doc against the terms hash stored on a license.
func (s *CommitmentService) VerifyLicenseTerms(ctx context.Context, licenseID uint64, doc *TermsDocument) (*TermsVerification, error) {
	var license models.License
	if err := s.ledger.DB(ctx).First(&license, licenseID).Error; err != nil {
		return nil, notFound(err, "license %d not found", licenseID)
	}

	actual, err := s.CommitTerms(doc)
	if err != nil {
		return nil, err
	}

	return &TermsVerification{
		LicenseID: licenseID,
		Expected:  license.TermsHash,
		Actual:    actual,
		Match:     actual == license.TermsHash,
	}, nil
}
