package services

import (
	"github.com/javajoker/imi-ledger/internal/fault"
)

func (suite *LedgerTestSuite) TestUpdateFeeRate() {
	_, err := suite.treasury.UpdateFeeRate(suite.ctx, owner, 100)
	suite.requireFault(err, fault.NotAuthorized)

	for _, rate := range []int64{1001, 70000, -1} {
		_, err = suite.treasury.UpdateFeeRate(suite.ctx, operator, rate)
		suite.requireFault(err, fault.InvalidRoyalty)
	}

	rate, err := suite.treasury.GetFeeRate(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(uint16(250), rate)

	state, err := suite.treasury.UpdateFeeRate(suite.ctx, operator, 1000)
	suite.Require().NoError(err)
	suite.Equal(uint16(1000), state.FeeRateBp)

	rate, err = suite.treasury.GetFeeRate(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(uint16(1000), rate)
}

func (suite *LedgerTestSuite) TestNewFeeRateAppliesToLaterPayments() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, &CreateLicenseRequest{UpfrontFee: 1000})
	_, err := suite.treasury.UpdateFeeRate(suite.ctx, operator, 1000)
	suite.Require().NoError(err)
	suite.fund(licensee, 1000)

	_, err = suite.licenses.AcceptLicense(suite.ctx, licensee, license.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(100), suite.balance(treasury))
	suite.Equal(int64(900), suite.balance(owner))
}

func (suite *LedgerTestSuite) TestWithdraw() {
	suite.licensedAndAccepted()

	_, err := suite.treasury.Withdraw(suite.ctx, owner, 10)
	suite.requireFault(err, fault.NotAuthorized)

	_, err = suite.treasury.Withdraw(suite.ctx, operator, 26)
	suite.requireFault(err, fault.InsufficientPayment)

	state, err := suite.treasury.Withdraw(suite.ctx, operator, 20)
	suite.Require().NoError(err)
	suite.Equal(int64(5), state.AccumulatedFees)
	suite.Equal(int64(20), suite.balance(operator))
	suite.Equal(int64(5), suite.balance(treasury))

	_, err = suite.treasury.Withdraw(suite.ctx, operator, 5)
	suite.Require().NoError(err)
	suite.Zero(suite.platformState().AccumulatedFees)
}

func (suite *LedgerTestSuite) TestWithdrawTransferFailureKeepsFees() {
	suite.licensedAndAccepted()

	// drain the treasury account behind the ledger's back
	suite.Require().NoError(suite.db.Exec("UPDATE accounts SET balance = 0 WHERE identity = ?", treasury).Error)

	_, err := suite.treasury.Withdraw(suite.ctx, operator, 25)
	suite.requireFault(err, fault.TransferFailed)
	suite.Equal(int64(25), suite.platformState().AccumulatedFees)
}

func (suite *LedgerTestSuite) TestGetPlatform() {
	suite.registerAsset(100)
	suite.clock.Advance(3)

	info, err := suite.treasury.GetPlatform(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(operator, info.Operator)
	suite.Equal(treasury, info.Treasury)
	suite.Equal(uint64(2), info.NextAssetID)
	suite.Equal(uint64(1), info.NextLicenseID)
	suite.Equal(int64(startHeight+3), info.Now)
}
