package services

import (
	"math"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/models"
	"github.com/javajoker/imi-ledger/internal/utils"
)

func (suite *LedgerTestSuite) TestCreateLicenseWithCustomRate() {
	asset := suite.registerAsset(500)

	license := suite.createLicense(asset.ID, &CreateLicenseRequest{
		CustomRoyaltyRateBp: int64p(300),
		UpfrontFee:          1000,
	})
	suite.Equal(uint64(1), license.ID)
	suite.Equal(uint16(300), license.RoyaltyRateBp)
	suite.Equal(owner, license.Licensor)
	suite.Equal(int64(startHeight), license.StartTime)
	suite.True(license.Active)
	suite.False(license.Accepted)

	usage, err := suite.revenue.GetUsage(suite.ctx, license.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(usage)
	suite.Zero(usage.UsageCount)

	revenue, err := suite.revenue.GetRevenue(suite.ctx, asset.ID)
	suite.Require().NoError(err)
	suite.Equal(uint64(1), revenue.TotalLicenses)
}

func (suite *LedgerTestSuite) TestCreateLicenseInheritsAssetRate() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, nil)
	suite.Equal(uint16(500), license.RoyaltyRateBp)
}

func (suite *LedgerTestSuite) TestCustomRateMayExceedAssetCap() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, &CreateLicenseRequest{CustomRoyaltyRateBp: int64p(9000)})
	suite.Equal(uint16(9000), license.RoyaltyRateBp)
}

func (suite *LedgerTestSuite) TestCustomRateMustFitBasisPoints() {
	asset := suite.registerAsset(500)

	for _, rate := range []int64{-1, math.MaxUint16 + 1} {
		_, err := suite.licenses.CreateLicense(suite.ctx, owner, asset.ID, &CreateLicenseRequest{
			Licensee:            licensee,
			LicenseType:         models.LicenseTypeNonExclusive,
			EndTime:             startHeight + 10,
			CustomRoyaltyRateBp: int64p(rate),
		})
		suite.requireFault(err, fault.InvalidRoyalty)
	}
	suite.Equal(uint64(1), suite.platformState().NextLicenseID)
}

func (suite *LedgerTestSuite) TestCreateLicenseFailures() {
	asset := suite.registerAsset(500)

	_, err := suite.licenses.CreateLicense(suite.ctx, owner, 7, &CreateLicenseRequest{Licensee: licensee, EndTime: startHeight + 10})
	suite.requireFault(err, fault.NotFound)

	_, err = suite.licenses.CreateLicense(suite.ctx, stranger, asset.ID, &CreateLicenseRequest{Licensee: licensee, EndTime: startHeight + 10})
	suite.requireFault(err, fault.NotAuthorized)

	// end time must lie strictly in the future
	_, err = suite.licenses.CreateLicense(suite.ctx, owner, asset.ID, &CreateLicenseRequest{Licensee: licensee, EndTime: startHeight})
	suite.requireFault(err, fault.InvalidLicense)

	state := suite.platformState()
	suite.Equal(uint64(1), state.NextLicenseID)

	revenue, err := suite.revenue.GetRevenue(suite.ctx, asset.ID)
	suite.Require().NoError(err)
	suite.Zero(revenue.TotalLicenses)
}

func (suite *LedgerTestSuite) TestAcceptLicenseSplitsUpfrontFee() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, &CreateLicenseRequest{CustomRoyaltyRateBp: int64p(300), UpfrontFee: 1000})
	suite.fund(licensee, 1000)

	accepted, err := suite.licenses.AcceptLicense(suite.ctx, licensee, license.ID)
	suite.Require().NoError(err)
	suite.True(accepted.Accepted)
	suite.Require().NotNil(accepted.AcceptedAt)
	suite.Equal(int64(startHeight), *accepted.AcceptedAt)

	suite.Equal(int64(975), suite.balance(owner))
	suite.Equal(int64(25), suite.balance(treasury))
	suite.Zero(suite.balance(licensee))

	revenue, err := suite.revenue.GetRevenue(suite.ctx, asset.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(975), revenue.TotalEarned)
	suite.Equal(int64(startHeight), revenue.LastPaymentAt)

	suite.Equal(int64(25), suite.platformState().AccumulatedFees)
}

func (suite *LedgerTestSuite) TestAcceptLicenseTwiceIsRejected() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, &CreateLicenseRequest{UpfrontFee: 1000})
	suite.fund(licensee, 2000)

	_, err := suite.licenses.AcceptLicense(suite.ctx, licensee, license.ID)
	suite.Require().NoError(err)

	_, err = suite.licenses.AcceptLicense(suite.ctx, licensee, license.ID)
	suite.requireFault(err, fault.InvalidLicense)

	// the fee was charged once
	suite.Equal(int64(1000), suite.balance(licensee))
	suite.Equal(int64(25), suite.platformState().AccumulatedFees)
}

func (suite *LedgerTestSuite) TestAcceptLicenseWithoutFeeMovesNothing() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, nil)

	_, err := suite.licenses.AcceptLicense(suite.ctx, licensee, license.ID)
	suite.Require().NoError(err)

	revenue, err := suite.revenue.GetRevenue(suite.ctx, asset.ID)
	suite.Require().NoError(err)
	suite.Zero(revenue.TotalEarned)
	suite.Zero(revenue.LastPaymentAt)
}

func (suite *LedgerTestSuite) TestAcceptLicenseFailures() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, &CreateLicenseRequest{UpfrontFee: 1000})

	_, err := suite.licenses.AcceptLicense(suite.ctx, licensee, 5)
	suite.requireFault(err, fault.NotFound)

	_, err = suite.licenses.AcceptLicense(suite.ctx, owner, license.ID)
	suite.requireFault(err, fault.NotAuthorized)

	// unfunded licensee
	_, err = suite.licenses.AcceptLicense(suite.ctx, licensee, license.ID)
	suite.requireFault(err, fault.TransferFailed)

	view, err := suite.licenses.GetLicense(suite.ctx, license.ID)
	suite.Require().NoError(err)
	suite.False(view.Accepted)

	_, err = suite.licenses.TerminateLicense(suite.ctx, owner, license.ID)
	suite.Require().NoError(err)

	suite.fund(licensee, 1000)
	_, err = suite.licenses.AcceptLicense(suite.ctx, licensee, license.ID)
	suite.requireFault(err, fault.InvalidLicense)
	suite.Equal(int64(1000), suite.balance(licensee))
}

func (suite *LedgerTestSuite) TestFailedFeeLegRollsBackOwnerShare() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, &CreateLicenseRequest{UpfrontFee: 1000})

	// enough for the owner share but not for the fee
	suite.fund(licensee, 980)

	_, err := suite.licenses.AcceptLicense(suite.ctx, licensee, license.ID)
	suite.requireFault(err, fault.TransferFailed)

	suite.Equal(int64(980), suite.balance(licensee))
	suite.Zero(suite.balance(owner))
	suite.Zero(suite.platformState().AccumulatedFees)

	revenue, err := suite.revenue.GetRevenue(suite.ctx, asset.ID)
	suite.Require().NoError(err)
	suite.Zero(revenue.TotalEarned)
}

func (suite *LedgerTestSuite) TestLicenseLifecycle() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, &CreateLicenseRequest{EndTime: startHeight + 10})

	view, err := suite.licenses.GetLicense(suite.ctx, license.ID)
	suite.Require().NoError(err)
	suite.Equal(models.LicenseStateActive, view.State)

	// the window is inclusive of its end
	suite.clock.Set(startHeight + 10)
	valid, err := suite.royalties.IsLicenseValid(suite.ctx, license.ID)
	suite.Require().NoError(err)
	suite.True(valid)

	suite.clock.Advance(1)
	view, err = suite.licenses.GetLicense(suite.ctx, license.ID)
	suite.Require().NoError(err)
	suite.Equal(models.LicenseStateExpired, view.State)
	suite.True(view.Active)

	_, err = suite.licenses.TerminateLicense(suite.ctx, licensee, license.ID)
	suite.requireFault(err, fault.NotAuthorized)

	terminated, err := suite.licenses.TerminateLicense(suite.ctx, owner, license.ID)
	suite.Require().NoError(err)
	suite.False(terminated.Active)

	// going back in time does not revive it
	suite.clock.Set(startHeight)
	valid, err = suite.royalties.IsLicenseValid(suite.ctx, license.ID)
	suite.Require().NoError(err)
	suite.False(valid)

	_, err = suite.licenses.TerminateLicense(suite.ctx, owner, 77)
	suite.requireFault(err, fault.NotFound)
}

func (suite *LedgerTestSuite) TestListLicensesByAsset() {
	first := suite.registerAsset(500)
	second := suite.registerAsset(500)
	suite.createLicense(first.ID, nil)
	suite.createLicense(first.ID, &CreateLicenseRequest{Licensee: "carol"})
	suite.createLicense(second.ID, nil)

	result, err := suite.licenses.ListLicenses(suite.ctx, ListLicensesParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10, Sort: "id", Order: "asc"},
		AssetID:          first.ID,
	})
	suite.Require().NoError(err)
	suite.Equal(int64(2), result.Total)

	views, ok := result.Data.([]LicenseView)
	suite.Require().True(ok)
	suite.Equal(licensee, views[0].Licensee)
	suite.Equal("carol", views[1].Licensee)
	suite.Equal(models.LicenseStateActive, views[1].State)
}
