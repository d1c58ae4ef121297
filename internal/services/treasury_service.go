// internal/services/treasury_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/metrics"
	"github.com/javajoker/imi-ledger/internal/models"
)

// TreasuryService manages the platform fee rate and the fees collected
// under it. Only the operator may change either.
type TreasuryService struct {
	ledger *Ledger
}

type UpdateFeeRateRequest struct {
	FeeRateBp *int64 `json:"fee_rate_bp" validate:"required"`
}

type WithdrawRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

type PlatformInfo struct {
	Operator        string `json:"operator"`
	Treasury        string `json:"treasury"`
	FeeRateBp       uint16 `json:"fee_rate_bp"`
	AccumulatedFees int64  `json:"accumulated_fees"`
	NextAssetID     uint64 `json:"next_asset_id"`
	NextLicenseID   uint64 `json:"next_license_id"`
	NextPaymentID   uint64 `json:"next_payment_id"`
	Now             int64  `json:"now"`
}

func NewTreasuryService(ledger *Ledger) *TreasuryService {
	return &TreasuryService{ledger: ledger}
}

func (s *TreasuryService) UpdateFeeRate(ctx context.Context, caller string, rateBp int64) (*models.PlatformState, error) {
	var state *models.PlatformState

	err := s.ledger.Atomic(ctx, "update_fee_rate", caller, func(op *Op) error {
		if !Authorize(RoleOperator, caller, PlatformPrincipals(s.ledger.Platform())) {
			return fault.New(fault.NotAuthorized, "only the platform operator can change the fee rate")
		}
		rate, err := narrowRate("fee rate", rateBp, models.MaxPlatformFeeBp)
		if err != nil {
			return err
		}

		state, err = op.State()
		if err != nil {
			return err
		}
		state.FeeRateBp = rate
		op.MarkStateDirty()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

// Withdraw pays collected fees from the treasury to the operator.
func (s *TreasuryService) Withdraw(ctx context.Context, caller string, amount int64) (*models.PlatformState, error) {
	var state *models.PlatformState
	platform := s.ledger.Platform()

	err := s.ledger.Atomic(ctx, "withdraw_fees", caller, func(op *Op) error {
		if !Authorize(RoleOperator, caller, PlatformPrincipals(platform)) {
			return fault.New(fault.NotAuthorized, "only the platform operator can withdraw fees")
		}

		var err error
		state, err = op.State()
		if err != nil {
			return err
		}
		if amount < 0 || amount > state.AccumulatedFees {
			return fault.Newf(fault.InsufficientPayment, "cannot withdraw %d of %d accumulated fees", amount, state.AccumulatedFees)
		}

		if err := op.pay(platform.Treasury, platform.Operator, amount); err != nil {
			return err
		}

		state.AccumulatedFees -= amount
		op.MarkStateDirty()

		op.OnCommit(func() {
			s.ledger.metrics.ObservePayment(metrics.PaymentKindWithdrawal, amount, 0)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

func (s *TreasuryService) GetFeeRate(ctx context.Context) (uint16, error) {
	info, err := s.GetPlatform(ctx)
	if err != nil {
		return 0, err
	}
	return info.FeeRateBp, nil
}

func (s *TreasuryService) GetPlatform(ctx context.Context) (*PlatformInfo, error) {
	var state models.PlatformState
	err := s.ledger.DB(ctx).First(&state, models.PlatformStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("platform state not initialized")
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	platform := s.ledger.Platform()
	return &PlatformInfo{
		Operator:        platform.Operator,
		Treasury:        platform.Treasury,
		FeeRateBp:       state.FeeRateBp,
		AccumulatedFees: state.AccumulatedFees,
		NextAssetID:     state.NextAssetID,
		NextLicenseID:   state.NextLicenseID,
		NextPaymentID:   state.NextPaymentID,
		Now:             s.ledger.Now(),
	}, nil
}
