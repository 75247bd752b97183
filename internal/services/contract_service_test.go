// internal/services/contract_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/models"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

type ContractServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ContractService

	manufacturer *models.Manufacturer
	product      *models.Product
	principal    models.Principal
}

func (suite *ContractServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.service = NewContractService(suite.db)
	suite.manufacturer = createManufacturer(suite.T(), suite.db, "Acme Foods")
	suite.product = createProduct(suite.T(), suite.db, "Frozen Fries")
	suite.principal = adminPrincipal()
}

func (suite *ContractServiceTestSuite) versionRequest(start, end time.Time, productIDs ...uuid.UUID) ContractVersionRequest {
	req := ContractVersionRequest{
		DateRange: utils.DateRange{StartDate: start, EndDate: end},
	}
	for _, id := range productIDs {
		req.Prices = append(req.Prices, ContractPriceRequest{
			ProductID:  id,
			PriceTerms: models.PriceTerms{CommercialDelivered: ptr(12.5)},
			UOM:        "case",
		})
	}
	return req
}

func (suite *ContractServiceTestSuite) createContract() *models.Contract {
	req := &CreateContractRequest{
		Name:           "Acme Master Agreement",
		ManufacturerID: suite.manufacturer.ID,
		Version:        suite.versionRequest(date(2025, time.January, 1), date(2025, time.December, 31), suite.product.ID),
	}
	contract, err := suite.service.CreateContract(suite.principal, req)
	require.NoError(suite.T(), err)
	return contract
}

func (suite *ContractServiceTestSuite) TestCreateContractMakesVersionOne() {
	contract := suite.createContract()

	require.Len(suite.T(), contract.Versions, 1)
	assert.Equal(suite.T(), 1, contract.Versions[0].VersionNumber)

	version, err := suite.service.CurrentVersion(contract.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, version.VersionNumber)
	require.Len(suite.T(), version.Prices, 1)
	assert.Equal(suite.T(), suite.product.ID, version.Prices[0].ProductID)
}

func (suite *ContractServiceTestSuite) TestVersionNumbersAreMonotonic() {
	contract := suite.createContract()

	for i := 0; i < 3; i++ {
		req := suite.versionRequest(date(2026, time.January, 1), date(2026, time.December, 31), suite.product.ID)
		version, err := suite.service.CreateVersion(contract.ID, suite.principal, &req)
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), i+2, version.VersionNumber)
	}

	versions, err := suite.service.ListVersions(contract.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), versions, 4)
	for i, v := range versions {
		assert.Equal(suite.T(), i+1, v.VersionNumber)
	}
}

func (suite *ContractServiceTestSuite) TestUpdateVersionAppendsInsteadOfMutating() {
	contract := suite.createContract()
	original, err := suite.service.CurrentVersion(contract.ID)
	require.NoError(suite.T(), err)

	req := suite.versionRequest(date(2025, time.February, 1), date(2025, time.December, 31), suite.product.ID)
	updated, err := suite.service.UpdateVersion(contract.ID, original.ID, suite.principal, &req)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 2, updated.VersionNumber)

	// The stored original is untouched.
	var stored models.ContractVersion
	require.NoError(suite.T(), suite.db.First(&stored, "id = ?", original.ID).Error)
	assert.Equal(suite.T(), 1, stored.VersionNumber)
	assert.Equal(suite.T(), original.StartDate, stored.StartDate)
}

func (suite *ContractServiceTestSuite) TestCloneVersionByNumber() {
	contract := suite.createContract()

	clone, err := suite.service.CloneVersionByNumber(contract.ID, 1, suite.principal)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, clone.VersionNumber)

	version, err := suite.service.CurrentVersion(contract.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), version.Prices, 1)
	assert.Equal(suite.T(), suite.product.ID, version.Prices[0].ProductID)
	assert.Equal(suite.T(), 12.5, *version.Prices[0].PriceTerms.CommercialDelivered)
}

func (suite *ContractServiceTestSuite) TestCloneMissingVersionFails() {
	contract := suite.createContract()

	_, err := suite.service.CloneVersionByNumber(contract.ID, 99, suite.principal)
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ContractServiceTestSuite) TestCompareVersions() {
	contract := suite.createContract()
	other := createProduct(suite.T(), suite.db, "Onion Rings")

	// Version 2 changes the fries price and introduces onion rings.
	req := ContractVersionRequest{
		DateRange: utils.DateRange{StartDate: date(2025, time.January, 1), EndDate: date(2025, time.December, 31)},
		Prices: []ContractPriceRequest{
			{ProductID: suite.product.ID, PriceTerms: models.PriceTerms{CommercialDelivered: ptr(14)}, UOM: "case"},
			{ProductID: other.ID, PriceTerms: models.PriceTerms{CommercialDelivered: ptr(9)}, UOM: "case"},
		},
	}
	_, err := suite.service.CreateVersion(contract.ID, suite.principal, &req)
	require.NoError(suite.T(), err)

	cmp, err := suite.service.CompareVersions(contract.ID, 1, 2)
	require.NoError(suite.T(), err)

	require.Len(suite.T(), cmp.Added, 1)
	assert.Equal(suite.T(), other.ID, cmp.Added[0].ProductID)
	assert.Empty(suite.T(), cmp.Removed)
	require.Len(suite.T(), cmp.Changed, 1)
	assert.Equal(suite.T(), suite.product.ID, cmp.Changed[0].ProductID)
	assert.Equal(suite.T(), 12.5, *cmp.Changed[0].Before.PriceTerms.CommercialDelivered)
	assert.Equal(suite.T(), 14.0, *cmp.Changed[0].After.PriceTerms.CommercialDelivered)

	// Reversed order reports the drop instead.
	reverse, err := suite.service.CompareVersions(contract.ID, 2, 1)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), reverse.Removed, 1)
	assert.Equal(suite.T(), other.ID, reverse.Removed[0].ProductID)
}

func (suite *ContractServiceTestSuite) TestSuspendFlagFlip() {
	contract := suite.createContract()

	suspended, err := suite.service.Suspend(contract.ID, suite.principal, true)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), suspended.IsSuspended)

	restored, err := suite.service.Suspend(contract.ID, suite.principal, false)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), restored.IsSuspended)
}

func (suite *ContractServiceTestSuite) TestGetContractNotFound() {
	_, err := suite.service.GetContract(uuid.New())
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *ContractServiceTestSuite) TestPriceTermsExclusivityRejected() {
	req := &CreateContractRequest{
		Name:           "Bad Agreement",
		ManufacturerID: suite.manufacturer.ID,
		Version: ContractVersionRequest{
			DateRange: utils.DateRange{StartDate: date(2025, time.January, 1), EndDate: date(2025, time.December, 31)},
			Prices: []ContractPriceRequest{
				{
					ProductID:  suite.product.ID,
					PriceTerms: models.PriceTerms{Allowance: ptr(2), CommercialDelivered: ptr(10)},
				},
			},
		},
	}

	_, err := suite.service.CreateContract(suite.principal, req)
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ContractServiceTestSuite) TestScopeOverridesAcrossVersions() {
	sysco := createDistributor(suite.T(), suite.db, "Sysco")
	usf := createDistributor(suite.T(), suite.db, "US Foods")

	req := &CreateContractRequest{
		Name:           "Acme Master Agreement",
		ManufacturerID: suite.manufacturer.ID,
		Version:        suite.versionRequest(date(2025, time.January, 1), date(2025, time.December, 31), suite.product.ID),
	}
	req.Version.DistributorIDs = &[]uuid.UUID{sysco.ID, usf.ID}
	contract, err := suite.service.CreateContract(suite.principal, req)
	require.NoError(suite.T(), err)

	resolver := NewScopeResolver(suite.db)

	// Version 2 says nothing about scope: both distributors carry forward.
	v2 := suite.versionRequest(date(2025, time.February, 1), date(2025, time.December, 31), suite.product.ID)
	_, err = suite.service.CreateVersion(contract.ID, suite.principal, &v2)
	require.NoError(suite.T(), err)

	scope, err := resolver.ResolveVersionScope(contract.ID, 2)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), scope.DistributorIDs, 2)

	// Version 3 narrows to a single distributor.
	v3 := suite.versionRequest(date(2025, time.March, 1), date(2025, time.December, 31), suite.product.ID)
	v3.DistributorIDs = &[]uuid.UUID{usf.ID}
	_, err = suite.service.CreateVersion(contract.ID, suite.principal, &v3)
	require.NoError(suite.T(), err)

	scope, err = resolver.ResolveVersionScope(contract.ID, 3)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), scope.DistributorIDs, 1)
	assert.Contains(suite.T(), scope.DistributorIDs, usf.ID)

	// Version 4 clears the dimension with an explicit empty slice.
	v4 := suite.versionRequest(date(2025, time.April, 1), date(2025, time.December, 31), suite.product.ID)
	v4.DistributorIDs = &[]uuid.UUID{}
	_, err = suite.service.CreateVersion(contract.ID, suite.principal, &v4)
	require.NoError(suite.T(), err)

	scope, err = resolver.ResolveVersionScope(contract.ID, 4)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), scope.DistributorIDs)

	// Earlier versions keep the scope they were written with.
	scope, err = resolver.ResolveVersionScope(contract.ID, 1)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), scope.DistributorIDs, 2)
}

func TestContractServiceSuite(t *testing.T) {
	suite.Run(t, new(ContractServiceTestSuite))
}
