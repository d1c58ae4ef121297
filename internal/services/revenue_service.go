// internal/services/revenue_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/imi-ledger/internal/models"
)

// RevenueService keeps the per-asset and per-license accumulators. Writes
// happen only as part of an operation run by another service.
type RevenueService struct {
	ledger *Ledger
}

func NewRevenueService(ledger *Ledger) *RevenueService {
	return &RevenueService{ledger: ledger}
}

// GetRevenue returns the asset's accumulator. Unknown assets have none.
func (s *RevenueService) GetRevenue(ctx context.Context, assetID uint64) (*models.IPRevenue, error) {
	var revenue models.IPRevenue
	err := s.ledger.DB(ctx).First(&revenue, assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &revenue, nil
}

// GetUsage returns the license's accumulator. Unknown licenses have none.
func (s *RevenueService) GetUsage(ctx context.Context, licenseID uint64) (*models.LicenseUsage, error) {
	var usage models.LicenseUsage
	err := s.ledger.DB(ctx).First(&usage, licenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &usage, nil
}

func (s *RevenueService) openAsset(op *Op, assetID uint64) error {
	return op.create(&models.IPRevenue{AssetID: assetID})
}

func (s *RevenueService) openLicense(op *Op, licenseID uint64) error {
	return op.create(&models.LicenseUsage{LicenseID: licenseID})
}

func (s *RevenueService) recordLicense(op *Op, assetID uint64) error {
	revenue, err := s.loadRevenue(op, assetID)
	if err != nil {
		return err
	}
	revenue.TotalLicenses++
	return op.save(revenue)
}

// recordEarning credits the owner's share to the asset and stamps the time
// of payment, even when the share is zero.
func (s *RevenueService) recordEarning(op *Op, assetID uint64, share int64) error {
	revenue, err := s.loadRevenue(op, assetID)
	if err != nil {
		return err
	}
	if revenue.TotalEarned, err = AddAmount(revenue.TotalEarned, share); err != nil {
		return err
	}
	revenue.LastPaymentAt = op.Now()
	return op.save(revenue)
}

func (s *RevenueService) recordUsage(op *Op, licenseID uint64, reportedRevenue, royalty int64) error {
	var usage models.LicenseUsage
	if err := op.load(&usage, licenseID); err != nil {
		return notFound(err, "usage record for license %d not found", licenseID)
	}
	var err error
	if usage.RevenueGenerated, err = AddAmount(usage.RevenueGenerated, reportedRevenue); err != nil {
		return err
	}
	if usage.RoyaltiesPaid, err = AddAmount(usage.RoyaltiesPaid, royalty); err != nil {
		return err
	}
	usage.UsageCount++
	usage.LastUsageAt = op.Now()
	return op.save(&usage)
}

func (s *RevenueService) loadRevenue(op *Op, assetID uint64) (*models.IPRevenue, error) {
	var revenue models.IPRevenue
	if err := op.load(&revenue, assetID); err != nil {
		return nil, notFound(err, "revenue record for asset %d not found", assetID)
	}
	return &revenue, nil
}
