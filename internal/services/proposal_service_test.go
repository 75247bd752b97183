// internal/services/proposal_service_test.go
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

type ProposalServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ProposalService

	manufacturer *models.Manufacturer
	distributor  *models.Distributor
	product      *models.Product
	admin        models.Principal
	supplier     models.Principal
}

func (suite *ProposalServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.service = NewProposalService(suite.db, nil)
	suite.manufacturer = createManufacturer(suite.T(), suite.db, "Acme Foods")
	suite.distributor = createDistributor(suite.T(), suite.db, "Sysco")
	suite.product = createProduct(suite.T(), suite.db, "Frozen Fries")
	suite.admin = adminPrincipal()
	suite.supplier = manufacturerPrincipal(suite.manufacturer.ID)
}

func (suite *ProposalServiceTestSuite) request() *ProposalRequest {
	return &ProposalRequest{
		Title:          "FY26 Fries Pricing",
		ProposalType:   models.ProposalTypeNewContract,
		ManufacturerID: &suite.manufacturer.ID,
		DateRange:      utils.DateRange{StartDate: date(2026, time.January, 1), EndDate: date(2026, time.December, 31)},
		Products: []ProposalProductRequest{
			{
				ProductID:      suite.product.ID,
				PriceTypeLabel: "guaranteed",
				PriceTerms:     models.PriceTerms{CommercialDelivered: ptr(11)},
				UOM:            "case",
			},
		},
		DistributorIDs: []uuid.UUID{suite.distributor.ID},
	}
}

func (suite *ProposalServiceTestSuite) submitted() *models.Proposal {
	proposal, err := suite.service.CreateProposal(suite.supplier, suite.request())
	require.NoError(suite.T(), err)
	proposal, err = suite.service.SubmitProposal(proposal.ID, suite.supplier)
	require.NoError(suite.T(), err)
	return proposal
}

func (suite *ProposalServiceTestSuite) TestCreateStatusFollowsCapability() {
	fromAdmin, err := suite.service.CreateProposal(suite.admin, suite.request())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ProposalStatusRequested, fromAdmin.ProposalStatus)

	fromSupplier, err := suite.service.CreateProposal(suite.supplier, suite.request())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ProposalStatusSaved, fromSupplier.ProposalStatus)

	// Both creations leave a history row for the initial status.
	history, err := suite.service.GetStatusHistory(fromAdmin.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), history, 1)
	assert.Equal(suite.T(), models.ProposalStatusRequested, history[0].ToStatus)
}

func (suite *ProposalServiceTestSuite) TestAmendmentRequiresContract() {
	req := suite.request()
	req.ProposalType = models.ProposalTypeAmendment

	_, err := suite.service.CreateProposal(suite.admin, req)
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ProposalServiceTestSuite) TestSupplierEditMovesRequestedToPending() {
	proposal, err := suite.service.CreateProposal(suite.admin, suite.request())
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), models.ProposalStatusRequested, proposal.ProposalStatus)

	updated, err := suite.service.UpdateProposal(proposal.ID, suite.supplier, suite.request())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ProposalStatusPending, updated.ProposalStatus)
}

func (suite *ProposalServiceTestSuite) TestSubmitFromAnyEditableStatus() {
	proposal, err := suite.service.CreateProposal(suite.supplier, suite.request())
	require.NoError(suite.T(), err)

	submitted, err := suite.service.SubmitProposal(proposal.ID, suite.supplier)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ProposalStatusSubmitted, submitted.ProposalStatus)

	// Submitting again is illegal.
	_, err = suite.service.SubmitProposal(proposal.ID, suite.supplier)
	assert.ErrorIs(suite.T(), err, ErrConflict)
}

func (suite *ProposalServiceTestSuite) TestSubmitWithoutProductsFails() {
	req := suite.request()
	req.Products = nil
	proposal, err := suite.service.CreateProposal(suite.supplier, req)
	require.NoError(suite.T(), err)

	_, err = suite.service.SubmitProposal(proposal.ID, suite.supplier)
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ProposalServiceTestSuite) TestAcceptAwardsContract() {
	proposal := suite.submitted()

	accepted, contract, err := suite.service.AcceptProposal(proposal.ID, suite.admin, &AcceptRequest{})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), models.ProposalStatusCompleted, accepted.ProposalStatus)
	require.Len(suite.T(), accepted.Products, 1)
	assert.Equal(suite.T(), models.ProductProposalStatusAccepted, accepted.Products[0].Status)

	require.NotNil(suite.T(), contract)
	assert.Equal(suite.T(), proposal.Title, contract.Name)
	assert.Equal(suite.T(), "PROPOSAL-"+proposal.ID.String(), contract.ManufacturerReferenceNumber)

	version, err := currentVersion(suite.db, contract.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, version.VersionNumber)
	require.Len(suite.T(), version.Prices, 1)
	assert.Equal(suite.T(), models.PriceTypeContractPrice, version.Prices[0].PriceType)
	assert.Equal(suite.T(), 11.0, *version.Prices[0].PriceTerms.CommercialDelivered)

	// Awarded scope carries the proposal's distributor.
	var scopeRows []models.ContractDistributorAssignment
	require.NoError(suite.T(), suite.db.Where("contract_id = ?", contract.ID).Find(&scopeRows).Error)
	require.Len(suite.T(), scopeRows, 1)
	assert.Equal(suite.T(), suite.distributor.ID, scopeRows[0].DistributorID)
}

func (suite *ProposalServiceTestSuite) TestAcceptBlockedByConflict() {
	proposal := suite.submitted()

	// A competing contract appears after submission.
	createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Competing Deal",
		date(2026, time.January, 1), date(2026, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)

	_, _, err := suite.service.AcceptProposal(proposal.ID, suite.admin, &AcceptRequest{})
	require.Error(suite.T(), err)

	var conflictErr *ConflictError
	require.ErrorAs(suite.T(), err, &conflictErr)
	assert.True(suite.T(), conflictErr.Result.HasConflicts)

	// The failed acceptance left no contract and no status change.
	reloaded, err := suite.service.GetProposal(proposal.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ProposalStatusSubmitted, reloaded.ProposalStatus)

	var contracts int64
	suite.db.Model(&models.Contract{}).Where("name = ?", proposal.Title).Count(&contracts)
	assert.Zero(suite.T(), contracts)
}

func (suite *ProposalServiceTestSuite) TestAcceptTwiceFails() {
	proposal := suite.submitted()

	_, _, err := suite.service.AcceptProposal(proposal.ID, suite.admin, &AcceptRequest{})
	require.NoError(suite.T(), err)

	_, _, err = suite.service.AcceptProposal(proposal.ID, suite.admin, &AcceptRequest{})
	assert.ErrorIs(suite.T(), err, ErrConflict)
}

func (suite *ProposalServiceTestSuite) TestAcceptRequiresReviewer() {
	proposal := suite.submitted()

	_, _, err := suite.service.AcceptProposal(proposal.ID, suite.supplier, &AcceptRequest{})
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ProposalServiceTestSuite) TestAcceptWithAllProductsRejectedFails() {
	proposal := suite.submitted()

	decisions := &AcceptRequest{
		Decisions: []ProductDecision{
			{ProposalProductID: proposal.Products[0].ID, Status: models.ProductProposalStatusRejected},
		},
	}
	_, _, err := suite.service.AcceptProposal(proposal.ID, suite.admin, decisions)
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ProposalServiceTestSuite) TestRejectCreatesNoContract() {
	proposal := suite.submitted()

	rejected, err := suite.service.RejectProposal(proposal.ID, suite.admin, "pricing too high")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), models.ProposalStatusCompleted, rejected.ProposalStatus)
	require.Len(suite.T(), rejected.Products, 1)
	assert.Equal(suite.T(), models.ProductProposalStatusRejected, rejected.Products[0].Status)
	assert.Contains(suite.T(), rejected.Notes, "pricing too high")

	var contracts int64
	suite.db.Model(&models.Contract{}).Count(&contracts)
	assert.Zero(suite.T(), contracts)
}

func (suite *ProposalServiceTestSuite) TestAmendmentAwardMergesIntoNewVersion() {
	existing := createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Running Deal",
		date(2025, time.January, 1), date(2026, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)
	newProduct := createProduct(suite.T(), suite.db, "Onion Rings")

	update := models.AmendmentActionUpdate
	add := models.AmendmentActionAdd
	req := suite.request()
	req.ProposalType = models.ProposalTypeAmendment
	req.AmendedContractID = &existing.ID
	req.Products = []ProposalProductRequest{
		{
			ProductID:       suite.product.ID,
			PriceTypeLabel:  "guaranteed",
			PriceTerms:      models.PriceTerms{CommercialDelivered: ptr(15)},
			AmendmentAction: &update,
		},
		{
			ProductID:       newProduct.ID,
			PriceTypeLabel:  "guaranteed",
			PriceTerms:      models.PriceTerms{CommercialDelivered: ptr(8)},
			AmendmentAction: &add,
		},
	}

	proposal, err := suite.service.CreateProposal(suite.supplier, req)
	require.NoError(suite.T(), err)
	_, err = suite.service.SubmitProposal(proposal.ID, suite.supplier)
	require.NoError(suite.T(), err)

	_, contract, err := suite.service.AcceptProposal(proposal.ID, suite.admin, &AcceptRequest{})
	require.NoError(suite.T(), err)

	// The amendment lands on the existing contract, not a new one.
	assert.Equal(suite.T(), existing.ID, contract.ID)

	version, err := currentVersion(suite.db, existing.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, version.VersionNumber)
	require.Len(suite.T(), version.Prices, 2)

	byProduct := make(map[uuid.UUID]models.ContractPrice)
	for _, p := range version.Prices {
		byProduct[p.ProductID] = p
	}
	assert.Equal(suite.T(), 15.0, *byProduct[suite.product.ID].PriceTerms.CommercialDelivered)
	assert.Equal(suite.T(), 8.0, *byProduct[newProduct.ID].PriceTerms.CommercialDelivered)
}

func (suite *ProposalServiceTestSuite) TestCloneResetsWorkflowState() {
	proposal := suite.submitted()
	_, _, err := suite.service.AcceptProposal(proposal.ID, suite.admin, &AcceptRequest{})
	require.NoError(suite.T(), err)

	clone, err := suite.service.CloneProposal(proposal.ID, suite.supplier)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Copy of "+proposal.Title, clone.Title)
	assert.Equal(suite.T(), models.ProposalStatusSaved, clone.ProposalStatus)
	require.Len(suite.T(), clone.Products, 1)
	assert.Equal(suite.T(), models.ProductProposalStatusPending, clone.Products[0].Status)

	// Clone history starts fresh.
	history, err := suite.service.GetStatusHistory(clone.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), history, 1)
}

func (suite *ProposalServiceTestSuite) TestListScopedToManufacturer() {
	_, err := suite.service.CreateProposal(suite.supplier, suite.request())
	require.NoError(suite.T(), err)

	other := createManufacturer(suite.T(), suite.db, "Rival Foods")
	otherReq := suite.request()
	otherReq.ManufacturerID = &other.ID
	_, err = suite.service.CreateProposal(suite.admin, otherReq)
	require.NoError(suite.T(), err)

	params := utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}

	mine, total, err := suite.service.ListProposals(suite.supplier, params, "")
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 1, total)
	require.Len(suite.T(), mine, 1)
	assert.Equal(suite.T(), suite.manufacturer.ID, *mine[0].ManufacturerID)

	all, total, err := suite.service.ListProposals(suite.admin, params, "")
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 2, total)
	assert.Len(suite.T(), all, 2)
}

func (suite *ProposalServiceTestSuite) TestProductHistoryRecordsDecisions() {
	proposal := suite.submitted()

	_, _, err := suite.service.AcceptProposal(proposal.ID, suite.admin, &AcceptRequest{})
	require.NoError(suite.T(), err)

	history, err := suite.service.GetProductHistory(proposal.ID)
	require.NoError(suite.T(), err)

	// One row for the product being added, one for the acceptance decision.
	require.Len(suite.T(), history, 2)
	assert.Equal(suite.T(), "added", history[0].ChangeType)
	assert.Equal(suite.T(), "status_changed", history[1].ChangeType)
	assert.Equal(suite.T(), "accepted", history[1].CurrentValues["status"])
}

func TestProposalServiceSuite(t *testing.T) {
	suite.Run(t, new(ProposalServiceTestSuite))
}
