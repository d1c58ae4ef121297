package services

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/models"
)

func (suite *LedgerTestSuite) TestAtomicRollsBackOnError() {
	boom := errors.New("boom")

	err := suite.ledger.Atomic(suite.ctx, "test", owner, func(op *Op) error {
		if _, err := op.nextAssetID(); err != nil {
			return err
		}
		if err := op.create(&models.IntellectualProperty{ID: 1, Owner: owner, Title: "ghost", Active: true}); err != nil {
			return err
		}
		return boom
	})
	suite.ErrorIs(err, boom)

	suite.Equal(uint64(1), suite.platformState().NextAssetID)
	_, err = suite.ips.GetAsset(suite.ctx, 1)
	suite.requireFault(err, fault.NotFound)
}

func (suite *LedgerTestSuite) TestAtomicReadsClockOnce() {
	var first, second int64
	err := suite.ledger.Atomic(suite.ctx, "test", owner, func(op *Op) error {
		first = op.Now()
		suite.clock.Advance(10)
		second = op.Now()
		return nil
	})
	suite.Require().NoError(err)
	suite.Equal(first, second)
}

func (suite *LedgerTestSuite) TestAtomicLogsOutcome() {
	suite.registerAsset(100)
	_, err := suite.ips.Register(suite.ctx, owner, &RegisterIPRequest{Title: "x", RoyaltyRateBp: 5001})
	suite.Require().Error(err)

	var committed, rejected *logrus.Entry
	for _, entry := range suite.logHook.AllEntries() {
		if entry.Data["operation"] != "register_ip" {
			continue
		}
		switch entry.Message {
		case "Ledger operation committed":
			committed = entry
		case "Ledger operation rejected":
			rejected = entry
		}
	}

	suite.Require().NotNil(committed)
	suite.Equal(owner, committed.Data["caller"])
	suite.Contains(committed.Data, "duration_ms")

	suite.Require().NotNil(rejected)
	suite.Equal(fault.InvalidRoyalty, rejected.Data["fault"])

	expected := `
# HELP ip_ledger_operations_total Ledger operations by name and result (ok or fault kind).
# TYPE ip_ledger_operations_total counter
ip_ledger_operations_total{operation="register_ip",result="invalid_royalty"} 1
ip_ledger_operations_total{operation="register_ip",result="ok"} 1
`
	suite.NoError(testutil.GatherAndCompare(suite.metrics.Gatherer(), strings.NewReader(expected), "ip_ledger_operations_total"))
}

func (suite *LedgerTestSuite) TestConcurrentRegistrationsGetDistinctIDs() {
	const n = 10

	var wg sync.WaitGroup
	ids := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			asset, err := suite.ips.Register(suite.ctx, owner, &RegisterIPRequest{Title: "parallel"})
			if err == nil {
				ids <- asset.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var got []int
	for id := range ids {
		got = append(got, int(id))
	}
	sort.Ints(got)

	suite.Require().Len(got, n)
	for i, id := range got {
		suite.Equal(i+1, id)
	}
	suite.Equal(uint64(n+1), suite.platformState().NextAssetID)
}

func (suite *LedgerTestSuite) TestMissingPlatformStateFails() {
	suite.Require().NoError(suite.db.Exec("DELETE FROM platform_state").Error)

	_, err := suite.ips.Register(suite.ctx, owner, &RegisterIPRequest{Title: "x"})
	suite.Require().Error(err)
	_, isFault := fault.KindOf(err)
	suite.False(isFault)
}
