// internal/services/ip_service.go
package services

import (
	"context"
	"fmt"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/models"
	"github.com/javajoker/imi-ledger/internal/utils"
)

type IPService struct {
	ledger  *Ledger
	revenue *RevenueService
}

type RegisterIPRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	Description   string `json:"description"`
	IPType        string `json:"ip_type" validate:"max=50"`
	ExpiresAt     *int64 `json:"expires_at,omitempty"`
	RoyaltyRateBp int64  `json:"royalty_rate_bp"`
	MetadataURI   string `json:"metadata_uri,omitempty" validate:"omitempty,max=512"`
}

type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner" validate:"required,identity"`
}

type ListIPParams struct {
	utils.PaginationParams
	Owner      string
	ActiveOnly bool
}

func NewIPService(ledger *Ledger, revenue *RevenueService) *IPService {
	return &IPService{
		ledger:  ledger,
		revenue: revenue,
	}
}

// Register records a new asset owned by caller together with its empty
// revenue record.
func (s *IPService) Register(ctx context.Context, caller string, req *RegisterIPRequest) (*models.IntellectualProperty, error) {
	var asset *models.IntellectualProperty

	err := s.ledger.Atomic(ctx, "register_ip", caller, func(op *Op) error {
		rate, err := narrowRate("royalty rate", req.RoyaltyRateBp, models.MaxAssetRoyaltyBp)
		if err != nil {
			return err
		}

		id, err := op.nextAssetID()
		if err != nil {
			return err
		}

		asset = &models.IntellectualProperty{
			ID:            id,
			Owner:         caller,
			Title:         req.Title,
			Description:   req.Description,
			IPType:        req.IPType,
			RegisteredAt:  op.Now(),
			ExpiresAt:     req.ExpiresAt,
			RoyaltyRateBp: rate,
			Active:        true,
			MetadataURI:   req.MetadataURI,
		}
		if err := op.create(asset); err != nil {
			return err
		}

		return s.revenue.openAsset(op, id)
	})
	if err != nil {
		return nil, err
	}

	return asset, nil
}

// TransferOwnership hands the asset to newOwner. Existing licenses keep
// paying the licensor recorded on them.
func (s *IPService) TransferOwnership(ctx context.Context, caller string, assetID uint64, newOwner string) (*models.IntellectualProperty, error) {
	return s.mutate(ctx, "transfer_ownership", caller, assetID, func(asset *models.IntellectualProperty) {
		asset.Owner = newOwner
	})
}

// Deactivate blocks new licenses on the asset. Existing licenses are unaffected.
func (s *IPService) Deactivate(ctx context.Context, caller string, assetID uint64) (*models.IntellectualProperty, error) {
	return s.mutate(ctx, "deactivate_ip", caller, assetID, func(asset *models.IntellectualProperty) {
		asset.Active = false
	})
}

func (s *IPService) mutate(ctx context.Context, name, caller string, assetID uint64, apply func(*models.IntellectualProperty)) (*models.IntellectualProperty, error) {
	var asset *models.IntellectualProperty

	err := s.ledger.Atomic(ctx, name, caller, func(op *Op) error {
		var err error
		asset, err = op.asset(assetID)
		if err != nil {
			return err
		}

		if !Authorize(RoleOwner, caller, AssetPrincipals(asset)) {
			return fault.Newf(fault.NotAuthorized, "only the owner can change IP asset %d", assetID)
		}

		apply(asset)
		return op.save(asset)
	})
	if err != nil {
		return nil, err
	}

	return asset, nil
}

func (s *IPService) GetAsset(ctx context.Context, id uint64) (*models.IntellectualProperty, error) {
	var asset models.IntellectualProperty
	if err := s.ledger.DB(ctx).First(&asset, id).Error; err != nil {
		return nil, notFound(err, "IP asset %d not found", id)
	}
	return &asset, nil
}

func (s *IPService) ListAssets(ctx context.Context, params ListIPParams) (*utils.PaginationResult, error) {
	query := s.ledger.DB(ctx).Model(&models.IntellectualProperty{})

	if params.Owner != "" {
		query = query.Where("owner = ?", params.Owner)
	}
	if params.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count IP assets: %w", err)
	}

	allowedSortFields := []string{"id", "created_at", "title", "registered_at"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var assets []models.IntellectualProperty
	if err := query.Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch IP assets: %w", err)
	}

	result := utils.CreatePaginationResult(assets, total, params.PaginationParams)
	return &result, nil
}
