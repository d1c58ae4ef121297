package services

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/imi-ledger/internal/clock"
	"github.com/javajoker/imi-ledger/internal/config"
	"github.com/javajoker/imi-ledger/internal/database"
	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/metrics"
	"github.com/javajoker/imi-ledger/internal/models"
)

const (
	owner    = "alice"
	licensee = "bob"
	stranger = "mallory"
	operator = "operator"
	treasury = "treasury"

	startHeight = 1000
)

type LedgerTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	clock    *clock.Fake
	metrics  *metrics.Metrics
	logHook  *test.Hook
	balances *BalanceTransfer
	ledger   *Ledger

	revenue   *RevenueService
	ips       *IPService
	licenses  *LicenseService
	royalties *RoyaltyService
	treasury  *TreasuryService
	accounts  *AccountService
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) SetupTest() {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)
	suite.logHook = test.NewLocal(log)

	db, err := database.Initialize(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:", LogLevel: "silent"}, log)
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(db, log))
	_, err = database.EnsurePlatformState(db, 250)
	suite.Require().NoError(err)

	suite.ctx = context.Background()
	suite.db = db
	suite.clock = clock.NewFake(startHeight)
	suite.metrics = metrics.New()
	suite.balances = NewBalanceTransfer()
	suite.ledger = NewLedger(db, suite.clock, suite.balances, Platform{Operator: operator, Treasury: treasury}, suite.metrics, log)

	suite.revenue = NewRevenueService(suite.ledger)
	suite.ips = NewIPService(suite.ledger, suite.revenue)
	suite.licenses = NewLicenseService(suite.ledger, suite.revenue)
	suite.royalties = NewRoyaltyService(suite.ledger, suite.revenue)
	suite.treasury = NewTreasuryService(suite.ledger)
	suite.accounts = NewAccountService(suite.ledger, suite.balances)
}

func (suite *LedgerTestSuite) TearDownTest() {
	database.Close(suite.db, suite.ledger.log)
}

func (suite *LedgerTestSuite) fund(identity string, amount int64) {
	_, err := suite.accounts.Credit(suite.ctx, operator, identity, amount)
	suite.Require().NoError(err)
}

func (suite *LedgerTestSuite) balance(identity string) int64 {
	account, err := suite.accounts.GetAccount(suite.ctx, identity)
	suite.Require().NoError(err)
	return account.Balance
}

func (suite *LedgerTestSuite) platformState() models.PlatformState {
	var state models.PlatformState
	suite.Require().NoError(suite.db.First(&state, models.PlatformStateID).Error)
	return state
}

func (suite *LedgerTestSuite) registerAsset(rateBp int64) *models.IntellectualProperty {
	asset, err := suite.ips.Register(suite.ctx, owner, &RegisterIPRequest{Title: "Song", RoyaltyRateBp: rateBp})
	suite.Require().NoError(err)
	return asset
}

func (suite *LedgerTestSuite) createLicense(assetID uint64, req *CreateLicenseRequest) *models.License {
	if req == nil {
		req = &CreateLicenseRequest{}
	}
	if req.Licensee == "" {
		req.Licensee = licensee
	}
	if req.LicenseType == "" {
		req.LicenseType = models.LicenseTypeNonExclusive
	}
	if req.EndTime == 0 {
		req.EndTime = startHeight + 100
	}
	license, err := suite.licenses.CreateLicense(suite.ctx, owner, assetID, req)
	suite.Require().NoError(err)
	return license
}

func (suite *LedgerTestSuite) requireFault(err error, kind fault.Kind) {
	suite.Require().Error(err)
	got, ok := fault.KindOf(err)
	suite.Require().True(ok, "expected fault %s, got %v", kind, err)
	suite.Equal(kind, got)
}

func int64p(v int64) *int64 { return &v }
