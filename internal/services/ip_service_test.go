package services

import (
	"math"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/utils"
)

func (suite *LedgerTestSuite) TestRegisterAssignsSequentialIDs() {
	first := suite.registerAsset(500)
	suite.Equal(uint64(1), first.ID)
	suite.Equal(owner, first.Owner)
	suite.True(first.Active)
	suite.Equal(int64(startHeight), first.RegisteredAt)

	stored, err := suite.ips.GetAsset(suite.ctx, 1)
	suite.Require().NoError(err)
	suite.Equal(uint16(500), stored.RoyaltyRateBp)

	revenue, err := suite.revenue.GetRevenue(suite.ctx, 1)
	suite.Require().NoError(err)
	suite.Require().NotNil(revenue)
	suite.Zero(revenue.TotalEarned)
	suite.Zero(revenue.TotalLicenses)

	second := suite.registerAsset(0)
	suite.Equal(uint64(2), second.ID)
}

func (suite *LedgerTestSuite) TestRegisterRejectsRateAboveCap() {
	_, err := suite.ips.Register(suite.ctx, owner, &RegisterIPRequest{Title: "Too greedy", RoyaltyRateBp: 6000})
	suite.requireFault(err, fault.InvalidRoyalty)

	suite.Equal(uint64(1), suite.platformState().NextAssetID)

	// the failed attempt did not consume an id
	asset := suite.registerAsset(5000)
	suite.Equal(uint64(1), asset.ID)
}

func (suite *LedgerTestSuite) TestRegisterRejectsRatesOutsideBasisPoints() {
	for _, rate := range []int64{-1, 70000, math.MaxInt64} {
		_, err := suite.ips.Register(suite.ctx, owner, &RegisterIPRequest{Title: "Song", RoyaltyRateBp: rate})
		suite.requireFault(err, fault.InvalidRoyalty)
	}
	suite.Equal(uint64(1), suite.platformState().NextAssetID)
}

func (suite *LedgerTestSuite) TestTransferOwnership() {
	asset := suite.registerAsset(500)

	_, err := suite.ips.TransferOwnership(suite.ctx, stranger, asset.ID, stranger)
	suite.requireFault(err, fault.NotAuthorized)

	_, err = suite.ips.TransferOwnership(suite.ctx, owner, 99, licensee)
	suite.requireFault(err, fault.NotFound)

	updated, err := suite.ips.TransferOwnership(suite.ctx, owner, asset.ID, "carol")
	suite.Require().NoError(err)
	suite.Equal("carol", updated.Owner)

	// the previous owner has lost control
	_, err = suite.ips.Deactivate(suite.ctx, owner, asset.ID)
	suite.requireFault(err, fault.NotAuthorized)
}

func (suite *LedgerTestSuite) TestLicensorSurvivesOwnershipTransfer() {
	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, nil)

	_, err := suite.ips.TransferOwnership(suite.ctx, owner, asset.ID, "carol")
	suite.Require().NoError(err)

	view, err := suite.licenses.GetLicense(suite.ctx, license.ID)
	suite.Require().NoError(err)
	suite.Equal(owner, view.Licensor)

	// the new owner cannot terminate a license granted by the old one
	_, err = suite.licenses.TerminateLicense(suite.ctx, "carol", license.ID)
	suite.requireFault(err, fault.NotAuthorized)
}

func (suite *LedgerTestSuite) TestDeactivateBlocksNewLicenses() {
	asset := suite.registerAsset(500)
	existing := suite.createLicense(asset.ID, nil)

	_, err := suite.ips.Deactivate(suite.ctx, stranger, asset.ID)
	suite.requireFault(err, fault.NotAuthorized)

	deactivated, err := suite.ips.Deactivate(suite.ctx, owner, asset.ID)
	suite.Require().NoError(err)
	suite.False(deactivated.Active)

	_, err = suite.licenses.CreateLicense(suite.ctx, owner, asset.ID, &CreateLicenseRequest{Licensee: licensee, EndTime: startHeight + 50})
	suite.requireFault(err, fault.InvalidLicense)

	valid, err := suite.royalties.IsLicenseValid(suite.ctx, existing.ID)
	suite.Require().NoError(err)
	suite.True(valid)
}

func (suite *LedgerTestSuite) TestGetAssetNotFound() {
	_, err := suite.ips.GetAsset(suite.ctx, 42)
	suite.requireFault(err, fault.NotFound)

	revenue, err := suite.revenue.GetRevenue(suite.ctx, 42)
	suite.NoError(err)
	suite.Nil(revenue)
}

func (suite *LedgerTestSuite) TestListAssetsFiltersByOwner() {
	suite.registerAsset(100)
	suite.registerAsset(200)
	_, err := suite.ips.Register(suite.ctx, "carol", &RegisterIPRequest{Title: "Poem"})
	suite.Require().NoError(err)

	params := ListIPParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10, Sort: "id", Order: "asc"},
		Owner:            owner,
	}
	result, err := suite.ips.ListAssets(suite.ctx, params)
	suite.Require().NoError(err)
	suite.Equal(int64(2), result.Total)
	suite.Equal(1, result.TotalPages)
}
