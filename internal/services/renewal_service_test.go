// internal/services/renewal_service_test.go
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

type RenewalServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *RenewalService

	manufacturer *models.Manufacturer
	distributor  *models.Distributor
	product      *models.Product
	admin        models.Principal
}

func (suite *RenewalServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.service = NewRenewalService(suite.db, nil)
	suite.manufacturer = createManufacturer(suite.T(), suite.db, "Acme Foods")
	suite.distributor = createDistributor(suite.T(), suite.db, "Sysco")
	suite.product = createProduct(suite.T(), suite.db, "Frozen Fries")
	suite.admin = adminPrincipal()
}

func (suite *RenewalServiceTestSuite) seedContract(name string) *models.Contract {
	return createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, name,
		date(2025, time.January, 1), date(2025, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)
}

func (suite *RenewalServiceTestSuite) renewalRequest(ids ...uuid.UUID) *RenewalRequest {
	return &RenewalRequest{
		ContractIDs: ids,
		DateRange:   utils.DateRange{StartDate: date(2026, time.January, 1), EndDate: date(2026, time.December, 31)},
	}
}

func (suite *RenewalServiceTestSuite) TestBulkRunIsolatesFailures() {
	first := suite.seedContract("Deal A")
	second := suite.seedContract("Deal B")
	third := suite.seedContract("Deal C")
	require.NoError(suite.T(), suite.db.Model(second).Update("is_suspended", true).Error)

	result, err := suite.service.CreateRenewals(suite.admin, suite.renewalRequest(first.ID, second.ID, third.ID))
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 2, result.CreatedCount)
	assert.Equal(suite.T(), 1, result.SkippedCount)
	require.Len(suite.T(), result.Outcomes, 3)

	assert.True(suite.T(), result.Outcomes[0].Eligible)
	assert.NotNil(suite.T(), result.Outcomes[0].ProposalID)

	assert.False(suite.T(), result.Outcomes[1].Eligible)
	assert.Equal(suite.T(), "contract is suspended", result.Outcomes[1].Reason)
	assert.Nil(suite.T(), result.Outcomes[1].ProposalID)

	assert.True(suite.T(), result.Outcomes[2].Eligible)
}

func (suite *RenewalServiceTestSuite) TestRenewalProposalCarriesPricingAndScope() {
	contract := suite.seedContract("Deal A")

	req := suite.renewalRequest(contract.ID)
	req.PercentageAdjustment = 10

	result, err := suite.service.CreateRenewals(suite.admin, req)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, result.CreatedCount)

	var proposal models.Proposal
	require.NoError(suite.T(), suite.db.
		Preload("Products").
		Preload("Distributors").
		First(&proposal, "id = ?", *result.Outcomes[0].ProposalID).Error)

	assert.Equal(suite.T(), models.ProposalTypeRenewal, proposal.ProposalType)
	assert.Equal(suite.T(), models.ProposalStatusRequested, proposal.ProposalStatus)
	require.NotNil(suite.T(), proposal.SourceContractID)
	assert.Equal(suite.T(), contract.ID, *proposal.SourceContractID)
	assert.Equal(suite.T(), "Renewal of Deal A", proposal.Title)

	require.Len(suite.T(), proposal.Products, 1)
	assert.Equal(suite.T(), models.ProductProposalStatusPending, proposal.Products[0].Status)
	assert.InDelta(suite.T(), 11.0, *proposal.Products[0].PriceTerms.CommercialDelivered, 0.0001)

	require.Len(suite.T(), proposal.Distributors, 1)
	assert.Equal(suite.T(), suite.distributor.ID, proposal.Distributors[0].DistributorID)
}

func (suite *RenewalServiceTestSuite) TestOpenRenewalBlocksSecondRun() {
	contract := suite.seedContract("Deal A")

	first, err := suite.service.CreateRenewals(suite.admin, suite.renewalRequest(contract.ID))
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, first.CreatedCount)

	second, err := suite.service.CreateRenewals(suite.admin, suite.renewalRequest(contract.ID))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, second.CreatedCount)
	assert.Equal(suite.T(), "renewal already in progress", second.Outcomes[0].Reason)
}

func (suite *RenewalServiceTestSuite) TestCompletedRenewalBlocksSecondRun() {
	contract := suite.seedContract("Deal A")

	first, err := suite.service.CreateRenewals(suite.admin, suite.renewalRequest(contract.ID))
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, first.CreatedCount)

	require.NoError(suite.T(), suite.db.Model(&models.Proposal{}).
		Where("id = ?", *first.Outcomes[0].ProposalID).
		Update("proposal_status", models.ProposalStatusCompleted).Error)

	second, err := suite.service.CreateRenewals(suite.admin, suite.renewalRequest(contract.ID))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, second.CreatedCount)
	assert.Equal(suite.T(), "contract already renewed", second.Outcomes[0].Reason)
}

func (suite *RenewalServiceTestSuite) TestValidatePreviewsWithoutCreating() {
	contract := suite.seedContract("Deal A")
	missing := uuid.New()

	result, err := suite.service.ValidateRenewals([]uuid.UUID{contract.ID, missing})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 1, result.CreatedCount)
	assert.Equal(suite.T(), 1, result.SkippedCount)
	assert.Equal(suite.T(), "contract not found", result.Outcomes[1].Reason)

	var proposals int64
	suite.db.Model(&models.Proposal{}).Count(&proposals)
	assert.Zero(suite.T(), proposals)
}

func (suite *RenewalServiceTestSuite) TestContractWithoutVersionsSkipped() {
	contract := &models.Contract{Name: "Empty Deal", ManufacturerID: suite.manufacturer.ID}
	require.NoError(suite.T(), suite.db.Create(contract).Error)

	result, err := suite.service.CreateRenewals(suite.admin, suite.renewalRequest(contract.ID))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, result.CreatedCount)
	assert.Equal(suite.T(), "contract has no versions", result.Outcomes[0].Reason)
}

func TestRenewalServiceSuite(t *testing.T) {
	suite.Run(t, new(RenewalServiceTestSuite))
}
