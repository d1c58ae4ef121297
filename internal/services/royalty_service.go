// internal/services/royalty_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"gorm.io/gorm"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/metrics"
	"github.com/javajoker/imi-ledger/internal/models"
	"github.com/javajoker/imi-ledger/internal/utils"
)

// ApplyRate returns floor(amount * rateBp / 10000). ok is false for a
// negative amount or a result that does not fit in int64.
func ApplyRate(amount int64, rateBp uint16) (int64, bool) {
	if amount < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(amount), uint64(rateBp))
	if hi >= models.BasisPoints {
		return 0, false
	}
	quo, _ := bits.Div64(hi, lo, models.BasisPoints)
	if quo > math.MaxInt64 {
		return 0, false
	}
	return int64(quo), true
}

// CalculateRoyalty is the royalty owed on revenue at rateBp, rounded down.
func CalculateRoyalty(revenue int64, rateBp uint16) (int64, error) {
	royalty, ok := ApplyRate(revenue, rateBp)
	if !ok {
		return 0, fault.Newf(fault.InvalidRoyalty, "royalty on revenue %d at %d bp is out of range", revenue, rateBp)
	}
	return royalty, nil
}

// narrowRate checks a requested rate against [0, maxBp] before it is stored
// as basis points.
func narrowRate(name string, rateBp, maxBp int64) (uint16, error) {
	if rateBp < 0 || rateBp > maxBp {
		return 0, fault.Newf(fault.InvalidRoyalty, "%s %d bp is outside 0..%d bp", name, rateBp, maxBp)
	}
	return uint16(rateBp), nil
}

// AddAmount adds amount to a running total, failing instead of wrapping.
func AddAmount(total, amount int64) (int64, error) {
	if (amount > 0 && total > math.MaxInt64-amount) || (amount < 0 && total < math.MinInt64-amount) {
		return 0, fault.Newf(fault.InvalidRoyalty, "total %d plus %d is out of range", total, amount)
	}
	return total + amount, nil
}

// Split divides a gross amount between the platform and the recipient.
// Fee is rounded down, so Fee+Share always equals Gross.
type Split struct {
	Gross int64 `json:"gross"`
	Fee   int64 `json:"fee"`
	Share int64 `json:"share"`
}

func SplitPayment(gross int64, feeRateBp uint16) (Split, error) {
	fee, ok := ApplyRate(gross, feeRateBp)
	if !ok {
		return Split{}, fault.Newf(fault.InvalidRoyalty, "cannot split amount %d", gross)
	}
	return Split{Gross: gross, Fee: fee, Share: gross - fee}, nil
}

type RoyaltyService struct {
	ledger  *Ledger
	revenue *RevenueService
}

type PayRoyaltyRequest struct {
	ReportedRevenue int64 `json:"reported_revenue" validate:"min=0"`
	PeriodStart     int64 `json:"period_start"`
	PeriodEnd       int64 `json:"period_end"`
}

type RoyaltyQuote struct {
	LicenseID uint64 `json:"license_id"`
	Revenue   int64  `json:"revenue"`
	RateBp    uint16 `json:"rate_bp"`
	Royalty   int64  `json:"royalty"`
}

func NewRoyaltyService(ledger *Ledger, revenue *RevenueService) *RoyaltyService {
	return &RoyaltyService{
		ledger:  ledger,
		revenue: revenue,
	}
}

// CalculateRoyalty quotes the royalty on revenue under a license. Unknown
// licenses and out-of-range results quote zero.
func (s *RoyaltyService) CalculateRoyalty(ctx context.Context, licenseID uint64, revenue int64) (*RoyaltyQuote, error) {
	quote := &RoyaltyQuote{LicenseID: licenseID, Revenue: revenue}

	var license models.License
	err := s.ledger.DB(ctx).First(&license, licenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return quote, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	quote.RateBp = license.RoyaltyRateBp
	if royalty, ok := ApplyRate(revenue, license.RoyaltyRateBp); ok {
		quote.Royalty = royalty
	}
	return quote, nil
}

// IsLicenseValid is false for unknown licenses.
func (s *RoyaltyService) IsLicenseValid(ctx context.Context, licenseID uint64) (bool, error) {
	var license models.License
	err := s.ledger.DB(ctx).First(&license, licenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return license.ValidAt(s.ledger.Now()), nil
}

// PayRoyalty settles the royalty on reported revenue. The licensee pays the
// owner share to the licensor and the fee to the treasury.
func (s *RoyaltyService) PayRoyalty(ctx context.Context, caller string, licenseID uint64, req *PayRoyaltyRequest) (*models.RoyaltyPayment, error) {
	var payment *models.RoyaltyPayment

	err := s.ledger.Atomic(ctx, "pay_royalty", caller, func(op *Op) error {
		license, err := op.license(licenseID)
		if err != nil {
			return err
		}

		if !Authorize(RoleLicensee, caller, LicensePrincipals(license)) {
			return fault.Newf(fault.NotAuthorized, "only the licensee can pay royalties on license %d", licenseID)
		}

		if !license.ValidAt(op.Now()) {
			return fault.Newf(fault.ExpiredLicense, "license %d is %s", licenseID, license.StateAt(op.Now()))
		}

		royalty, err := CalculateRoyalty(req.ReportedRevenue, license.RoyaltyRateBp)
		if err != nil {
			return err
		}

		state, err := op.State()
		if err != nil {
			return err
		}
		split, err := SplitPayment(royalty, state.FeeRateBp)
		if err != nil {
			return err
		}

		// Move value
		if err := op.pay(caller, license.Licensor, split.Share); err != nil {
			return err
		}
		if err := op.pay(caller, s.ledger.Platform().Treasury, split.Fee); err != nil {
			return err
		}

		id, err := op.nextPaymentID()
		if err != nil {
			return err
		}
		payment = &models.RoyaltyPayment{
			ID:              id,
			LicenseID:       licenseID,
			Payer:           caller,
			ReportedRevenue: req.ReportedRevenue,
			Amount:          split.Gross,
			PlatformFee:     split.Fee,
			OwnerShare:      split.Share,
			PaidAt:          op.Now(),
			PeriodStart:     req.PeriodStart,
			PeriodEnd:       req.PeriodEnd,
		}
		if err := op.create(payment); err != nil {
			return err
		}

		if err := s.revenue.recordUsage(op, licenseID, req.ReportedRevenue, split.Gross); err != nil {
			return err
		}
		if err := s.revenue.recordEarning(op, license.AssetID, split.Share); err != nil {
			return err
		}

		if state.AccumulatedFees, err = AddAmount(state.AccumulatedFees, split.Fee); err != nil {
			return err
		}
		op.MarkStateDirty()

		op.OnCommit(func() {
			s.ledger.metrics.ObservePayment(metrics.PaymentKindRoyalty, split.Gross, split.Fee)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

func (s *RoyaltyService) GetPayment(ctx context.Context, id uint64) (*models.RoyaltyPayment, error) {
	var payment models.RoyaltyPayment
	if err := s.ledger.DB(ctx).First(&payment, id).Error; err != nil {
		return nil, notFound(err, "royalty payment %d not found", id)
	}
	return &payment, nil
}

// ListPayments pages through a license's payments. A license with no
// payments, known or not, yields an empty page.
func (s *RoyaltyService) ListPayments(ctx context.Context, licenseID uint64, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.ledger.DB(ctx).Model(&models.RoyaltyPayment{}).Where("license_id = ?", licenseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	var payments []models.RoyaltyPayment
	query = utils.ApplySort(query, params, []string{"id", "paid_at", "amount"})
	if err := utils.ApplyPagination(query, params).Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	result := utils.CreatePaginationResult(payments, total, params)
	return &result, nil
}
