// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/customerbalancetransaction"
	"github.com/stripe/stripe-go/v74/transfer"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/imi-ledger/internal/config"
	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/models"
)

// ValueTransfer moves value between identities. Implementations that keep
// state in the database must use tx so the move commits or rolls back with
// the operation that requested it. A returned error aborts that operation.
type ValueTransfer interface {
	Transfer(ctx context.Context, tx *gorm.DB, from, to string, amount int64) error
}

// BalanceTransfer settles value in the accounts table.
type BalanceTransfer struct{}

func NewBalanceTransfer() *BalanceTransfer {
	return &BalanceTransfer{}
}

func (b *BalanceTransfer) Transfer(ctx context.Context, tx *gorm.DB, from, to string, amount int64) error {
	if amount < 0 {
		return fault.Newf(fault.TransferFailed, "negative transfer amount %d", amount)
	}
	if amount == 0 {
		return nil
	}

	result := tx.WithContext(ctx).
		Model(&models.Account{}).
		Where("identity = ? AND balance >= ?", from, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to debit %s: %w", from, result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.Newf(fault.TransferFailed, "insufficient balance: %s cannot pay %d", from, amount)
	}

	return b.Credit(ctx, tx, to, amount)
}

// Credit adds amount to identity's balance, opening the account if needed.
func (b *BalanceTransfer) Credit(ctx context.Context, tx *gorm.DB, identity string, amount int64) error {
	var existing models.Account
	err := tx.WithContext(ctx).Where("identity = ?", identity).Take(&existing).Error
	switch {
	case err == nil:
		if _, err := AddAmount(existing.Balance, amount); err != nil {
			return fault.Newf(fault.TransferFailed, "balance of %s cannot take %d more", identity, amount)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to read balance of %s: %w", identity, err)
	}

	account := models.Account{Identity: identity, Balance: amount}
	err = tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identity"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("accounts.balance + ?", amount),
			"updated_at": time.Now(),
		}),
	}).Create(&account).Error
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", identity, err)
	}
	return nil
}

// Settler is implemented by transfer backends that queue legs inside the
// operation's transaction and send them once it has committed.
type Settler interface {
	Settle(ctx context.Context, db *gorm.DB) error
}

const maxSettlementAttempts = 5

// StripeTransfer settles legs through Stripe. Payers are customer ids and
// are debited on their customer balance. Payees are Connect account ids and
// are paid by transfer. The platform balance stands in for the treasury, so
// the treasury side of a leg needs no API call.
//
// Transfer only queues a models.Settlement in the operation's transaction;
// Settle sends it after commit, so a rolled back operation never reaches
// Stripe.
type StripeTransfer struct {
	balances  *customerbalancetransaction.Client
	transfers *transfer.Client
	currency  string
	treasury  string
	log       logrus.FieldLogger
}

func NewStripeTransfer(cfg config.TransferConfig, treasury string, log logrus.FieldLogger) *StripeTransfer {
	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     log,
	}
	if cfg.StripeAPIURL != "" {
		backendConfig.URL = stripe.String(cfg.StripeAPIURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	return &StripeTransfer{
		balances:  &customerbalancetransaction.Client{B: backend, Key: cfg.StripeSecretKey},
		transfers: &transfer.Client{B: backend, Key: cfg.StripeSecretKey},
		currency:  cfg.Currency,
		treasury:  treasury,
		log:       log,
	}
}

func (s *StripeTransfer) Transfer(ctx context.Context, tx *gorm.DB, from, to string, amount int64) error {
	if amount < 0 {
		return fault.Newf(fault.TransferFailed, "negative transfer amount %d", amount)
	}
	if amount == 0 {
		return nil
	}

	settlement := &models.Settlement{
		Payer:    from,
		Payee:    to,
		Amount:   amount,
		Currency: s.currency,
		Status:   models.SettlementPending,
	}
	if err := tx.WithContext(ctx).Create(settlement).Error; err != nil {
		return fault.Wrap(fault.TransferFailed, err, "failed to queue settlement")
	}
	return nil
}

// Settle sends every pending settlement. One that fails stays pending with
// its error recorded and is retried on the next call, until it has been
// tried maxSettlementAttempts times.
func (s *StripeTransfer) Settle(ctx context.Context, db *gorm.DB) error {
	var pending []models.Settlement
	err := db.WithContext(ctx).
		Where("status = ?", models.SettlementPending).
		Order("created_at, id").
		Find(&pending).Error
	if err != nil {
		return fmt.Errorf("failed to load pending settlements: %w", err)
	}

	failed := 0
	for i := range pending {
		settlement := &pending[i]
		sendErr := s.send(ctx, settlement)
		settlement.Attempts++
		if sendErr == nil {
			settlement.Status = models.SettlementSettled
			settlement.LastError = ""
		} else {
			failed++
			settlement.LastError = sendErr.Error()
			if settlement.Attempts >= maxSettlementAttempts {
				settlement.Status = models.SettlementFailed
			}
			s.log.WithError(sendErr).WithFields(logrus.Fields{
				"settlement_id": settlement.ID,
				"attempts":      settlement.Attempts,
			}).Warn("Stripe settlement failed")
		}
		if err := db.WithContext(ctx).Save(settlement).Error; err != nil {
			return fmt.Errorf("failed to save settlement %s: %w", settlement.ID, err)
		}
	}

	if failed > 0 {
		return fault.Newf(fault.TransferFailed, "%d of %d settlements failed", failed, len(pending))
	}
	return nil
}

// send debits the payer, then pays the payee. A half whose reference is
// already recorded is not sent again, and the idempotency keys come from
// the settlement id so a retried request cannot double charge.
func (s *StripeTransfer) send(ctx context.Context, settlement *models.Settlement) error {
	id := settlement.ID.String()

	if settlement.Payer != s.treasury && settlement.DebitRef == "" {
		params := &stripe.CustomerBalanceTransactionParams{
			Customer:    stripe.String(settlement.Payer),
			Amount:      stripe.Int64(settlement.Amount),
			Currency:    stripe.String(settlement.Currency),
			Description: stripe.String(fmt.Sprintf("IP ledger payment to %s", settlement.Payee)),
		}
		params.Context = ctx
		params.AddMetadata("settlement_id", id)
		params.SetIdempotencyKey(id + "-debit")

		txn, err := s.balances.New(params)
		if err != nil {
			return stripeFault(err, "debit of "+settlement.Payer)
		}
		settlement.DebitRef = txn.ID
	}

	if settlement.Payee != s.treasury && settlement.PayoutRef == "" {
		params := &stripe.TransferParams{
			Amount:        stripe.Int64(settlement.Amount),
			Currency:      stripe.String(settlement.Currency),
			Destination:   stripe.String(settlement.Payee),
			TransferGroup: stripe.String(id),
			Description:   stripe.String(fmt.Sprintf("IP ledger payment from %s", settlement.Payer)),
		}
		params.Context = ctx
		params.AddMetadata("from", settlement.Payer)
		params.SetIdempotencyKey(id + "-payout")

		tr, err := s.transfers.New(params)
		if err != nil {
			return stripeFault(err, "payout to "+settlement.Payee)
		}
		settlement.PayoutRef = tr.ID
	}

	return nil
}

func stripeFault(err error, what string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fault.Wrap(fault.TransferFailed, err, "stripe rejected "+what)
	}
	return fault.Wrap(fault.TransferFailed, err, "stripe "+what+" failed")
}

// AccountService exposes the built-in balance ledger.
type AccountService struct {
	ledger   *Ledger
	balances *BalanceTransfer
}

// ErrAccountsDisabled is returned when value moves through an external
// processor and there are no local balances.
var ErrAccountsDisabled = errors.New("account balances are not kept by this transfer backend")

type CreditAccountRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

// NewAccountService takes nil balances when another transfer backend is in use.
func NewAccountService(ledger *Ledger, balances *BalanceTransfer) *AccountService {
	return &AccountService{ledger: ledger, balances: balances}
}

// Credit funds an identity's balance. Only the operator may mint value.
func (s *AccountService) Credit(ctx context.Context, caller, identity string, amount int64) (*models.Account, error) {
	if s.balances == nil {
		return nil, ErrAccountsDisabled
	}

	err := s.ledger.Atomic(ctx, "credit_account", caller, func(op *Op) error {
		if !Authorize(RoleOperator, caller, PlatformPrincipals(s.ledger.Platform())) {
			return fault.New(fault.NotAuthorized, "only the platform operator can credit accounts")
		}
		if amount <= 0 {
			return fault.Newf(fault.InsufficientPayment, "credit amount must be positive, got %d", amount)
		}
		return s.balances.Credit(op.ctx, op.tx, identity, amount)
	})
	if err != nil {
		return nil, err
	}

	return s.GetAccount(ctx, identity)
}

// GetAccount returns the balance of identity. Unknown identities hold zero.
func (s *AccountService) GetAccount(ctx context.Context, identity string) (*models.Account, error) {
	if s.balances == nil {
		return nil, ErrAccountsDisabled
	}

	var account models.Account
	err := s.ledger.DB(ctx).First(&account, "identity = ?", identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Account{Identity: identity}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}
