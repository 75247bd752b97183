// internal/services/conflict_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/models"
)

// ConflictService detects pricing overlaps between a proposal and the
// current versions of active contracts: same manufacturer, same product,
// intersecting scope and overlapping dates. This is the guard that keeps two
// active contracts from double-booking a product in the same territory.
type ConflictService struct {
	db       *gorm.DB
	resolver *ScopeResolver
}

type Conflict struct {
	ProductID               uuid.UUID `json:"product_id"`
	ProductName             string    `json:"product_name"`
	ConflictingContractID   uuid.UUID `json:"conflicting_contract_id"`
	ConflictingContractName string    `json:"conflicting_contract_name"`
}

type ConflictResult struct {
	HasConflicts       bool       `json:"has_conflicts"`
	Conflicts          []Conflict `json:"conflicts"`
	TotalConflictCount int        `json:"total_conflict_count"`
}

// ConflictInput is the raw detection input; DetectForProposal builds it from
// a stored proposal.
type ConflictInput struct {
	ManufacturerID uuid.UUID
	Scope          ScopeSet
	StartDate      time.Time
	EndDate        time.Time
	ProductIDs     []uuid.UUID

	// ExcludeContractID skips the named contract, so amendment proposals do
	// not conflict with the contract they amend.
	ExcludeContractID *uuid.UUID
}

func NewConflictService(db *gorm.DB) *ConflictService {
	return &ConflictService{db: db, resolver: NewScopeResolver(db)}
}

func (s *ConflictService) withDB(db *gorm.DB) *ConflictService {
	return &ConflictService{db: db, resolver: s.resolver.withDB(db)}
}

// DatesOverlap implements the inclusive-inclusive interval test: intervals
// sharing a single boundary day overlap.
func DatesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// DetectForProposal runs detection for a stored proposal.
func (s *ConflictService) DetectForProposal(proposalID uuid.UUID) (*ConflictResult, error) {
	var proposal models.Proposal
	if err := s.db.
		Preload("Products").
		Preload("Distributors").
		Preload("OpCos").
		Preload("Industries").
		First(&proposal, "id = ?", proposalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("proposal %s", proposalID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	input := ConflictInput{
		Scope:     s.resolver.ResolveProposalScope(&proposal),
		StartDate: proposal.StartDate,
		EndDate:   proposal.EndDate,
	}
	if proposal.ManufacturerID != nil {
		input.ManufacturerID = *proposal.ManufacturerID
	}
	for _, p := range proposal.Products {
		input.ProductIDs = append(input.ProductIDs, p.ProductID)
	}
	if proposal.ProposalType == models.ProposalTypeAmendment {
		input.ExcludeContractID = proposal.AmendedContractID
	}

	return s.Detect(input)
}

// Detect reports every (product, contract) pair where a non-suspended
// contract's current version prices one of the input products with
// intersecting scope and overlapping dates. Detection is read-only and
// deterministic; an empty result is not an error.
func (s *ConflictService) Detect(input ConflictInput) (*ConflictResult, error) {
	result := &ConflictResult{Conflicts: []Conflict{}}
	if len(input.ProductIDs) == 0 || input.ManufacturerID == uuid.Nil {
		return result, nil
	}

	var contracts []models.Contract
	query := s.db.Where("manufacturer_id = ? AND is_suspended = ?", input.ManufacturerID, false)
	if input.ExcludeContractID != nil {
		query = query.Where("id <> ?", *input.ExcludeContractID)
	}
	if err := query.Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("failed to load candidate contracts: %w", err)
	}

	productSet := make(map[uuid.UUID]struct{}, len(input.ProductIDs))
	for _, id := range input.ProductIDs {
		productSet[id] = struct{}{}
	}
	seen := make(map[string]struct{})

	for _, contract := range contracts {
		// Only each contract's current version participates.
		var version models.ContractVersion
		err := s.db.Where("contract_id = ?", contract.ID).
			Order("version_number DESC").
			First(&version).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load current version of contract %s: %w", contract.ID, err)
		}

		if !DatesOverlap(input.StartDate, input.EndDate, version.StartDate, version.EndDate) {
			continue
		}

		scope, err := s.resolver.ResolveVersionScope(contract.ID, version.VersionNumber)
		if err != nil {
			return nil, err
		}
		if !scope.Intersects(input.Scope) {
			continue
		}

		var prices []models.ContractPrice
		if err := s.db.Preload("Product").
			Where("contract_version_id = ?", version.ID).
			Find(&prices).Error; err != nil {
			return nil, fmt.Errorf("failed to load prices of contract %s: %w", contract.ID, err)
		}

		for _, price := range prices {
			if _, ok := productSet[price.ProductID]; !ok {
				continue
			}
			key := price.ProductID.String() + "/" + contract.ID.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Conflicts = append(result.Conflicts, Conflict{
				ProductID:               price.ProductID,
				ProductName:             price.Product.Name,
				ConflictingContractID:   contract.ID,
				ConflictingContractName: contract.Name,
			})
		}
	}

	result.TotalConflictCount = len(result.Conflicts)
	result.HasConflicts = result.TotalConflictCount > 0
	return result, nil
}
