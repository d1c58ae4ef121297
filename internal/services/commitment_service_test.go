package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-ledger/internal/fault"
)

func TestHashBytesIsKeccak256(t *testing.T) {
	s := NewCommitmentService(nil)
	assert.Equal(t,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		s.HashBytes(nil).String())
}

func TestCommitTermsIsStable(t *testing.T) {
	s := NewCommitmentService(nil)

	a, err := s.CommitTerms(&TermsDocument{Text: "terms", Fields: map[string]string{"b": "2", "a": "1"}})
	require.NoError(t, err)
	b, err := s.CommitTerms(&TermsDocument{Text: "terms", Fields: map[string]string{"a": "1", "b": "2"}})
	require.NoError(t, err)
	c, err := s.CommitTerms(&TermsDocument{Text: "other terms"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func (suite *LedgerTestSuite) TestVerifyLicenseTerms() {
	commitments := NewCommitmentService(suite.ledger)
	doc := &TermsDocument{Text: "Worldwide, non-exclusive, five percent."}
	hash, err := commitments.CommitTerms(doc)
	suite.Require().NoError(err)

	asset := suite.registerAsset(500)
	license := suite.createLicense(asset.ID, &CreateLicenseRequest{TermsHash: hash})

	result, err := commitments.VerifyLicenseTerms(suite.ctx, license.ID, doc)
	suite.Require().NoError(err)
	suite.True(result.Match)

	result, err = commitments.VerifyLicenseTerms(suite.ctx, license.ID, &TermsDocument{Text: "tampered"})
	suite.Require().NoError(err)
	suite.False(result.Match)
	suite.Equal(hash, result.Expected)

	_, err = commitments.VerifyLicenseTerms(suite.ctx, 404, doc)
	suite.requireFault(err, fault.NotFound)
}
