// internal/services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/imi-ledger/internal/clock"
	"github.com/javajoker/imi-ledger/internal/database"
	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/metrics"
	"github.com/javajoker/imi-ledger/internal/models"
)

// Platform names the two platform identities.
type Platform struct {
	Operator string
	Treasury string
}

// Ledger runs state-changing operations one at a time, each inside a single
// database transaction. Either every record write and every value transfer
// of an operation lands, or none does.
type Ledger struct {
	mu       sync.Mutex
	db       *gorm.DB
	clock    clock.Clock
	transfer ValueTransfer
	platform Platform
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

func NewLedger(db *gorm.DB, clk clock.Clock, transfer ValueTransfer, platform Platform, m *metrics.Metrics, log logrus.FieldLogger) *Ledger {
	return &Ledger{
		db:       db,
		clock:    clk,
		transfer: transfer,
		platform: platform,
		metrics:  m,
		log:      log,
	}
}

func (l *Ledger) Platform() Platform { return l.platform }

// Now reads the logical clock for queries.
func (l *Ledger) Now() int64 { return l.clock.Now() }

// DB is the read handle used by queries.
func (l *Ledger) DB(ctx context.Context) *gorm.DB { return l.db.WithContext(ctx) }

// Op is the view an operation has of the ledger while its transaction is open.
type Op struct {
	ctx         context.Context
	tx          *gorm.DB
	now         int64
	ledger      *Ledger
	state       *models.PlatformState
	stateDirty  bool
	afterCommit []func()
}

// Atomic runs fn as one operation named name on behalf of caller. The clock
// is read once and every read and write inside fn sees that time.
func (l *Ledger) Atomic(ctx context.Context, name, caller string, fn func(op *Op) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	var hooks []func()
	err := database.WithTransaction(l.db.WithContext(ctx), func(tx *gorm.DB) error {
		op := &Op{ctx: ctx, tx: tx, now: l.clock.Now(), ledger: l}
		if err := fn(op); err != nil {
			return err
		}
		if err := op.flush(); err != nil {
			return err
		}
		hooks = op.afterCommit
		return nil
	})

	entry := l.log.WithFields(logrus.Fields{
		"operation":   name,
		"caller":      caller,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	result := metrics.ResultOK
	if err != nil {
		if kind, ok := fault.KindOf(err); ok {
			result = string(kind)
			entry.WithField("fault", kind).WithError(err).Info("Ledger operation rejected")
		} else {
			result = "error"
			entry.WithError(err).Error("Ledger operation failed")
		}
	} else {
		entry.Info("Ledger operation committed")
		for _, hook := range hooks {
			hook()
		}
		// Still under mu, so a queued settlement is never sent twice at once.
		if settler, ok := l.transfer.(Settler); ok {
			if err := settler.Settle(ctx, l.db); err != nil {
				entry.WithError(err).Warn("Settlement incomplete, left pending")
			}
		}
	}
	l.metrics.ObserveOperation(name, result)

	return err
}

func (op *Op) Now() int64 { return op.now }

// OnCommit queues fn to run once the operation has committed.
func (op *Op) OnCommit(fn func()) {
	op.afterCommit = append(op.afterCommit, fn)
}

// State loads the platform state row, once per operation.
func (op *Op) State() (*models.PlatformState, error) {
	if op.state != nil {
		return op.state, nil
	}

	query := op.tx
	if op.tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var state models.PlatformState
	if err := query.First(&state, models.PlatformStateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("platform state not initialized")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	op.state = &state
	return op.state, nil
}

// MarkStateDirty schedules the platform state row to be written at commit.
func (op *Op) MarkStateDirty() { op.stateDirty = true }

func (op *Op) flush() error {
	if !op.stateDirty {
		return nil
	}
	if err := op.tx.Save(op.state).Error; err != nil {
		return fmt.Errorf("failed to save platform state: %w", err)
	}
	return nil
}

func (op *Op) nextAssetID() (uint64, error) {
	state, err := op.State()
	if err != nil {
		return 0, err
	}
	id := state.NextAssetID
	state.NextAssetID++
	op.MarkStateDirty()
	return id, nil
}

func (op *Op) nextLicenseID() (uint64, error) {
	state, err := op.State()
	if err != nil {
		return 0, err
	}
	id := state.NextLicenseID
	state.NextLicenseID++
	op.MarkStateDirty()
	return id, nil
}

func (op *Op) nextPaymentID() (uint64, error) {
	state, err := op.State()
	if err != nil {
		return 0, err
	}
	id := state.NextPaymentID
	state.NextPaymentID++
	op.MarkStateDirty()
	return id, nil
}

func (op *Op) asset(id uint64) (*models.IntellectualProperty, error) {
	var asset models.IntellectualProperty
	if err := op.load(&asset, id); err != nil {
		return nil, notFound(err, "IP asset %d not found", id)
	}
	return &asset, nil
}

func (op *Op) license(id uint64) (*models.License, error) {
	var license models.License
	if err := op.load(&license, id); err != nil {
		return nil, notFound(err, "license %d not found", id)
	}
	return &license, nil
}

func (op *Op) load(dest interface{}, id uint64) error {
	return op.tx.First(dest, id).Error
}

func (op *Op) create(value interface{}) error {
	if err := op.tx.Create(value).Error; err != nil {
		return fmt.Errorf("failed to create %T: %w", value, err)
	}
	return nil
}

func (op *Op) save(value interface{}) error {
	if err := op.tx.Save(value).Error; err != nil {
		return fmt.Errorf("failed to save %T: %w", value, err)
	}
	return nil
}

// pay moves amount from one identity to another. Zero-amount legs are skipped.
func (op *Op) pay(from, to string, amount int64) error {
	if amount == 0 {
		return nil
	}
	if err := op.ledger.transfer.Transfer(op.ctx, op.tx, from, to, amount); err != nil {
		if fault.Is(err, fault.TransferFailed) {
			return err
		}
		return fault.Wrap(fault.TransferFailed, err, fmt.Sprintf("transfer of %d from %s to %s failed", amount, from, to))
	}
	return nil
}

// notFound maps a missing row to fault.NotFound and passes other errors through.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.Newf(fault.NotFound, format, args...)
	}
	return fmt.Errorf("database error: %w", err)
}
