// internal/services/license_service.go
package services

import (
	"context"
	"fmt"
	"math"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/metrics"
	"github.com/javajoker/imi-ledger/internal/models"
	"github.com/javajoker/imi-ledger/internal/utils"
)

type LicenseService struct {
	ledger  *Ledger
	revenue *RevenueService
}

type CreateLicenseRequest struct {
	Licensee            string             `json:"licensee" validate:"required,identity"`
	LicenseType         models.LicenseType `json:"license_type" validate:"required,oneof=exclusive non_exclusive sublicense"`
	EndTime             int64              `json:"end_time" validate:"required"`
	Territory           string             `json:"territory" validate:"max=100"`
	FieldOfUse          string             `json:"field_of_use" validate:"max=255"`
	CustomRoyaltyRateBp *int64             `json:"custom_royalty_rate_bp,omitempty"`
	UpfrontFee          int64              `json:"upfront_fee" validate:"min=0"`
	TermsHash           models.Hash32      `json:"terms_hash"`
}

type ListLicensesParams struct {
	utils.PaginationParams
	AssetID  uint64
	Licensee string
	Licensor string
}

// LicenseView is a license together with its state at query time.
type LicenseView struct {
	*models.License
	State models.LicenseState `json:"state"`
}

func NewLicenseService(ledger *Ledger, revenue *RevenueService) *LicenseService {
	return &LicenseService{
		ledger:  ledger,
		revenue: revenue,
	}
}

// CreateLicense grants a license on an active asset. Without a custom rate
// the license inherits the asset's royalty rate; a custom rate is taken as is.
func (s *LicenseService) CreateLicense(ctx context.Context, caller string, assetID uint64, req *CreateLicenseRequest) (*models.License, error) {
	var license *models.License

	err := s.ledger.Atomic(ctx, "create_license", caller, func(op *Op) error {
		asset, err := op.asset(assetID)
		if err != nil {
			return err
		}

		if !Authorize(RoleOwner, caller, AssetPrincipals(asset)) {
			return fault.Newf(fault.NotAuthorized, "only the owner can license IP asset %d", assetID)
		}

		if !asset.Active {
			return fault.Newf(fault.InvalidLicense, "IP asset %d is inactive", assetID)
		}
		if req.EndTime <= op.Now() {
			return fault.Newf(fault.InvalidLicense, "license end time %d is not after %d", req.EndTime, op.Now())
		}
		if req.UpfrontFee < 0 {
			return fault.Newf(fault.InvalidLicense, "negative upfront fee %d", req.UpfrontFee)
		}

		// Overrides may exceed the asset's rate; they only have to fit in basis points.
		rate := asset.RoyaltyRateBp
		if req.CustomRoyaltyRateBp != nil {
			if rate, err = narrowRate("custom royalty rate", *req.CustomRoyaltyRateBp, math.MaxUint16); err != nil {
				return err
			}
		}

		id, err := op.nextLicenseID()
		if err != nil {
			return err
		}

		license = &models.License{
			ID:            id,
			AssetID:       assetID,
			Licensee:      req.Licensee,
			Licensor:      caller,
			LicenseType:   req.LicenseType,
			StartTime:     op.Now(),
			EndTime:       req.EndTime,
			Territory:     req.Territory,
			FieldOfUse:    req.FieldOfUse,
			RoyaltyRateBp: rate,
			UpfrontFee:    req.UpfrontFee,
			Active:        true,
			TermsHash:     req.TermsHash,
		}
		if err := op.create(license); err != nil {
			return err
		}

		if err := s.revenue.openLicense(op, id); err != nil {
			return err
		}
		return s.revenue.recordLicense(op, assetID)
	})
	if err != nil {
		return nil, err
	}

	return license, nil
}

// AcceptLicense records the licensee's acceptance and settles the upfront
// fee. A license can be accepted once.
func (s *LicenseService) AcceptLicense(ctx context.Context, caller string, licenseID uint64) (*models.License, error) {
	var license *models.License

	err := s.ledger.Atomic(ctx, "accept_license", caller, func(op *Op) error {
		var err error
		license, err = op.license(licenseID)
		if err != nil {
			return err
		}

		if !Authorize(RoleLicensee, caller, LicensePrincipals(license)) {
			return fault.Newf(fault.NotAuthorized, "only the licensee can accept license %d", licenseID)
		}

		if !license.Active {
			return fault.Newf(fault.InvalidLicense, "license %d is terminated", licenseID)
		}
		if license.Accepted {
			return fault.Newf(fault.InvalidLicense, "license %d was already accepted", licenseID)
		}

		if license.UpfrontFee > 0 {
			state, err := op.State()
			if err != nil {
				return err
			}
			split, err := SplitPayment(license.UpfrontFee, state.FeeRateBp)
			if err != nil {
				return err
			}

			if err := op.pay(caller, license.Licensor, split.Share); err != nil {
				return err
			}
			if err := op.pay(caller, s.ledger.Platform().Treasury, split.Fee); err != nil {
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
				s.ledger.metrics.ObservePayment(metrics.PaymentKindUpfront, split.Gross, split.Fee)
			})
		}

		now := op.Now()
		license.Accepted = true
		license.AcceptedAt = &now
		return op.save(license)
	})
	if err != nil {
		return nil, err
	}

	return license, nil
}

// TerminateLicense permanently ends a license. Terminating twice is a no-op.
func (s *LicenseService) TerminateLicense(ctx context.Context, caller string, licenseID uint64) (*models.License, error) {
	var license *models.License

	err := s.ledger.Atomic(ctx, "terminate_license", caller, func(op *Op) error {
		var err error
		license, err = op.license(licenseID)
		if err != nil {
			return err
		}

		if !Authorize(RoleLicensor, caller, LicensePrincipals(license)) {
			return fault.Newf(fault.NotAuthorized, "only the licensor can terminate license %d", licenseID)
		}

		license.Active = false
		return op.save(license)
	})
	if err != nil {
		return nil, err
	}

	return license, nil
}

func (s *LicenseService) GetLicense(ctx context.Context, id uint64) (*LicenseView, error) {
	var license models.License
	if err := s.ledger.DB(ctx).First(&license, id).Error; err != nil {
		return nil, notFound(err, "license %d not found", id)
	}
	return s.View(&license), nil
}

// View pairs a license with its state at the current logical time.
func (s *LicenseService) View(license *models.License) *LicenseView {
	return &LicenseView{License: license, State: license.StateAt(s.ledger.Now())}
}

func (s *LicenseService) ListLicenses(ctx context.Context, params ListLicensesParams) (*utils.PaginationResult, error) {
	query := s.ledger.DB(ctx).Model(&models.License{})

	if params.AssetID != 0 {
		query = query.Where("asset_id = ?", params.AssetID)
	}
	if params.Licensee != "" {
		query = query.Where("licensee = ?", params.Licensee)
	}
	if params.Licensor != "" {
		query = query.Where("licensor = ?", params.Licensor)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count licenses: %w", err)
	}

	allowedSortFields := []string{"id", "created_at", "start_time", "end_time"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var licenses []models.License
	if err := query.Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch licenses: %w", err)
	}

	now := s.ledger.Now()
	views := make([]LicenseView, len(licenses))
	for i := range licenses {
		views[i] = LicenseView{License: &licenses[i], State: licenses[i].StateAt(now)}
	}

	result := utils.CreatePaginationResult(views, total, params.PaginationParams)
	return &result, nil
}
