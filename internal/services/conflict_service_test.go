// internal/services/conflict_service_test.go
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
)

func TestDatesOverlap(t *testing.T) {
	jun1 := date(2025, time.June, 1)
	jun30 := date(2025, time.June, 30)
	jul1 := date(2025, time.July, 1)
	dec31 := date(2025, time.December, 31)

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint", jun1, jun30, jul1, dec31, false},
		{"shared boundary day overlaps", jun1, jun30, jun30, dec31, true},
		{"contained", jun1, dec31, jun30, jul1, true},
		{"identical", jun1, jun30, jun1, jun30, true},
		{"reversed disjoint", jul1, dec31, jun1, jun30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DatesOverlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestScopeSetIntersects(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	t.Run("both empty scopes intersect", func(t *testing.T) {
		assert.True(t, NewScopeSet().Intersects(NewScopeSet()))
	})

	t.Run("shared distributor intersects", func(t *testing.T) {
		left := ScopeFromIDs([]uuid.UUID{a}, nil, nil)
		right := ScopeFromIDs([]uuid.UUID{a, b}, nil, nil)
		assert.True(t, left.Intersects(right))
	})

	t.Run("disjoint ids do not intersect", func(t *testing.T) {
		left := ScopeFromIDs([]uuid.UUID{a}, nil, nil)
		right := ScopeFromIDs([]uuid.UUID{b}, nil, nil)
		assert.False(t, left.Intersects(right))
	})

	t.Run("match in any dimension suffices", func(t *testing.T) {
		left := ScopeFromIDs([]uuid.UUID{a}, nil, []uuid.UUID{b})
		right := ScopeFromIDs(nil, nil, []uuid.UUID{b})
		assert.True(t, left.Intersects(right))
	})

	t.Run("one empty one populated does not intersect", func(t *testing.T) {
		left := NewScopeSet()
		right := ScopeFromIDs([]uuid.UUID{a}, nil, nil)
		assert.False(t, left.Intersects(right))
	})
}

type ConflictServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ConflictService

	manufacturer *models.Manufacturer
	distributor  *models.Distributor
	product      *models.Product
}

func (suite *ConflictServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.service = NewConflictService(suite.db)
	suite.manufacturer = createManufacturer(suite.T(), suite.db, "Acme Foods")
	suite.distributor = createDistributor(suite.T(), suite.db, "Sysco")
	suite.product = createProduct(suite.T(), suite.db, "Frozen Fries")
}

func (suite *ConflictServiceTestSuite) input(start, end time.Time) ConflictInput {
	return ConflictInput{
		ManufacturerID: suite.manufacturer.ID,
		Scope:          ScopeFromIDs([]uuid.UUID{suite.distributor.ID}, nil, nil),
		StartDate:      start,
		EndDate:        end,
		ProductIDs:     []uuid.UUID{suite.product.ID},
	}
}

func (suite *ConflictServiceTestSuite) TestDetectFindsOverlappingContract() {
	createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Active Deal",
		date(2025, time.January, 1), date(2025, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)

	result, err := suite.service.Detect(suite.input(date(2025, time.June, 1), date(2026, time.May, 31)))
	require.NoError(suite.T(), err)

	assert.True(suite.T(), result.HasConflicts)
	require.Len(suite.T(), result.Conflicts, 1)
	assert.Equal(suite.T(), suite.product.ID, result.Conflicts[0].ProductID)
	assert.Equal(suite.T(), "Active Deal", result.Conflicts[0].ConflictingContractName)
	assert.Equal(suite.T(), 1, result.TotalConflictCount)
}

func (suite *ConflictServiceTestSuite) TestDetectIgnoresSuspendedContracts() {
	contract := createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Suspended Deal",
		date(2025, time.January, 1), date(2025, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)
	require.NoError(suite.T(), suite.db.Model(contract).Update("is_suspended", true).Error)

	result, err := suite.service.Detect(suite.input(date(2025, time.June, 1), date(2026, time.May, 31)))
	require.NoError(suite.T(), err)
	assert.False(suite.T(), result.HasConflicts)
}

func (suite *ConflictServiceTestSuite) TestDetectIgnoresDisjointDates() {
	createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Expired Deal",
		date(2024, time.January, 1), date(2024, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)

	result, err := suite.service.Detect(suite.input(date(2025, time.June, 1), date(2026, time.May, 31)))
	require.NoError(suite.T(), err)
	assert.False(suite.T(), result.HasConflicts)
}

func (suite *ConflictServiceTestSuite) TestDetectIgnoresDisjointScope() {
	other := createDistributor(suite.T(), suite.db, "US Foods")
	createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Other Territory",
		date(2025, time.January, 1), date(2025, time.December, 31),
		[]uuid.UUID{other.ID}, suite.product.ID)

	result, err := suite.service.Detect(suite.input(date(2025, time.June, 1), date(2026, time.May, 31)))
	require.NoError(suite.T(), err)
	assert.False(suite.T(), result.HasConflicts)
}

func (suite *ConflictServiceTestSuite) TestDetectUsesCurrentVersionOnly() {
	contract := createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Renegotiated Deal",
		date(2025, time.January, 1), date(2025, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)

	// Version 2 drops the product entirely; only it should participate.
	v2 := &models.ContractVersion{
		ContractID:    contract.ID,
		VersionNumber: 2,
		StartDate:     date(2025, time.January, 1),
		EndDate:       date(2025, time.December, 31),
	}
	require.NoError(suite.T(), suite.db.Create(v2).Error)

	result, err := suite.service.Detect(suite.input(date(2025, time.June, 1), date(2026, time.May, 31)))
	require.NoError(suite.T(), err)
	assert.False(suite.T(), result.HasConflicts)
}

func (suite *ConflictServiceTestSuite) TestDetectExcludesAmendedContract() {
	contract := createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Amended Deal",
		date(2025, time.January, 1), date(2025, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)

	input := suite.input(date(2025, time.June, 1), date(2026, time.May, 31))
	input.ExcludeContractID = &contract.ID

	result, err := suite.service.Detect(input)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), result.HasConflicts)
}

func (suite *ConflictServiceTestSuite) TestDetectIsDeterministic() {
	createContractWithVersion(suite.T(), suite.db, suite.manufacturer.ID, "Active Deal",
		date(2025, time.January, 1), date(2025, time.December, 31),
		[]uuid.UUID{suite.distributor.ID}, suite.product.ID)

	input := suite.input(date(2025, time.June, 1), date(2026, time.May, 31))
	first, err := suite.service.Detect(input)
	require.NoError(suite.T(), err)
	second, err := suite.service.Detect(input)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), first, second)
}

func (suite *ConflictServiceTestSuite) TestDetectForProposalUnknownID() {
	_, err := suite.service.DetectForProposal(uuid.New())
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func TestConflictServiceSuite(t *testing.T) {
	suite.Run(t, new(ConflictServiceTestSuite))
}
