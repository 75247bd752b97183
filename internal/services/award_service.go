// internal/services/award_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/models"
)

// AwardService converts an accepted proposal into contract state: new
// contracts and renewals become a fresh contract with version 1, amendments
// become the next version of the amended contract. It always runs inside the
// acceptance transaction.
type AwardService struct {
	db *gorm.DB
}

func NewAwardService(db *gorm.DB) *AwardService {
	return &AwardService{db: db}
}

// priceTypeSynonyms maps the free-form labels seen on proposal products to
// the closed price type set. Lookups are case- and whitespace-insensitive.
var priceTypeSynonyms = map[string]models.PriceType{
	"contract_price":                     models.PriceTypeContractPrice,
	"contract price":                     models.PriceTypeContractPrice,
	"guaranteed":                         models.PriceTypeContractPrice,
	"guaranteed price":                   models.PriceTypeContractPrice,
	"firm":                               models.PriceTypeContractPrice,
	"contract_price_at_time_of_purchase": models.PriceTypeContractPriceAtTime,
	"contract price at time of purchase": models.PriceTypeContractPriceAtTime,
	"at time of purchase":                models.PriceTypeContractPriceAtTime,
	"atp":                                models.PriceTypeContractPriceAtTime,
	"list_at_time_of_purchase":           models.PriceTypeListAtTime,
	"list at time of purchase":           models.PriceTypeListAtTime,
	"list":                               models.PriceTypeListAtTime,
	"list price":                         models.PriceTypeListAtTime,
	"discontinued":                       models.PriceTypeDiscontinued,
	"disc":                               models.PriceTypeDiscontinued,
	"suspended":                          models.PriceTypeSuspended,
	"suspend":                            models.PriceTypeSuspended,
}

// NormalizePriceType folds a free-form proposal label into the closed price
// type set. Empty and unrecognized labels fall back to contract_price, the
// overwhelmingly common case in legacy data.
func NormalizePriceType(label string) models.PriceType {
	key := strings.ToLower(strings.TrimSpace(label))
	if t, ok := priceTypeSynonyms[key]; ok {
		return t
	}
	return models.PriceTypeContractPrice
}

// Award materializes contract state from a proposal whose product decisions
// are already applied. Only accepted products are priced; the caller passes
// the transaction so the award commits or rolls back with the acceptance.
func (s *AwardService) Award(tx *gorm.DB, proposal *models.Proposal, principal models.Principal) (*models.Contract, error) {
	accepted := make([]models.ProposalProduct, 0, len(proposal.Products))
	for _, p := range proposal.Products {
		if p.Status == models.ProductProposalStatusAccepted {
			accepted = append(accepted, p)
		}
	}
	if len(accepted) == 0 {
		return nil, validationf("proposal %s has no accepted products to award", proposal.ID)
	}
	if proposal.ManufacturerID == nil {
		return nil, validationf("proposal %s has no manufacturer", proposal.ID)
	}

	if proposal.ProposalType == models.ProposalTypeAmendment {
		return s.awardAmendment(tx, proposal, accepted, principal)
	}
	return s.awardNewContract(tx, proposal, accepted, principal)
}

func (s *AwardService) awardNewContract(tx *gorm.DB, proposal *models.Proposal, accepted []models.ProposalProduct, principal models.Principal) (*models.Contract, error) {
	contract := &models.Contract{
		Name:                        proposal.Title,
		ManufacturerID:              *proposal.ManufacturerID,
		ManufacturerReferenceNumber: fmt.Sprintf("PROPOSAL-%s", proposal.ID),
		CreatedBy:                   principal.UserID,
	}
	if err := tx.Create(contract).Error; err != nil {
		return nil, fmt.Errorf("failed to create awarded contract: %w", err)
	}

	version := &models.ContractVersion{
		ContractID:    contract.ID,
		VersionNumber: 1,
		StartDate:     proposal.StartDate,
		EndDate:       proposal.EndDate,
		EffectiveDate: proposal.StartDate,
		CreatedBy:     principal.UserID,
	}
	if err := tx.Create(version).Error; err != nil {
		return nil, fmt.Errorf("failed to create awarded version: %w", err)
	}

	for _, p := range accepted {
		if err := tx.Create(priceFromProposalProduct(version.ID, p)).Error; err != nil {
			return nil, fmt.Errorf("failed to create awarded price: %w", err)
		}
	}

	if err := copyProposalScope(tx, contract, 1, proposal); err != nil {
		return nil, err
	}

	return contract, nil
}

// awardAmendment merges accepted products into the amended contract's current
// pricing as a brand-new version: Add products become new price rows, Update
// products replace the matching product's row. Untouched rows carry forward.
func (s *AwardService) awardAmendment(tx *gorm.DB, proposal *models.Proposal, accepted []models.ProposalProduct, principal models.Principal) (*models.Contract, error) {
	if proposal.AmendedContractID == nil {
		return nil, validationf("amendment proposal %s has no amended contract", proposal.ID)
	}

	var contract models.Contract
	if err := tx.First(&contract, "id = ?", *proposal.AmendedContractID).Error; err != nil {
		return nil, notFoundf("amended contract %s", *proposal.AmendedContractID)
	}

	current, err := currentVersion(tx, contract.ID)
	if err != nil {
		return nil, err
	}

	number, err := nextVersionNumber(tx, contract.ID)
	if err != nil {
		return nil, err
	}

	version := &models.ContractVersion{
		ContractID:    contract.ID,
		VersionNumber: number,
		StartDate:     proposal.StartDate,
		EndDate:       proposal.EndDate,
		EffectiveDate: proposal.StartDate,
		CreatedBy:     principal.UserID,
	}
	if err := tx.Create(version).Error; err != nil {
		return nil, fmt.Errorf("failed to create amendment version: %w", err)
	}

	replaced := make(map[uuid.UUID]models.ProposalProduct)
	added := make([]models.ProposalProduct, 0, len(accepted))
	for _, p := range accepted {
		action := models.AmendmentActionAdd
		if p.AmendmentAction != nil {
			action = *p.AmendmentAction
		}
		switch action {
		case models.AmendmentActionUpdate:
			replaced[p.ProductID] = p
		default:
			added = append(added, p)
		}
	}

	// Carry forward current prices, substituting updated products.
	for _, existing := range current.Prices {
		if p, ok := replaced[existing.ProductID]; ok {
			if err := tx.Create(priceFromProposalProduct(version.ID, p)).Error; err != nil {
				return nil, fmt.Errorf("failed to create amended price: %w", err)
			}
			delete(replaced, existing.ProductID)
			continue
		}
		carried := &models.ContractPrice{
			ContractVersionID: version.ID,
			ProductID:         existing.ProductID,
			PriceType:         existing.PriceType,
			PriceTerms:        existing.PriceTerms,
			UOM:               existing.UOM,
			EstimatedVolume:   existing.EstimatedVolume,
			ActualVolume:      existing.ActualVolume,
			BillbacksAllowed:  existing.BillbacksAllowed,
		}
		if err := tx.Create(carried).Error; err != nil {
			return nil, fmt.Errorf("failed to carry forward price: %w", err)
		}
	}
	// Updates whose product is not in the current version behave as adds.
	for _, p := range replaced {
		added = append(added, p)
	}
	for _, p := range added {
		if err := tx.Create(priceFromProposalProduct(version.ID, p)).Error; err != nil {
			return nil, fmt.Errorf("failed to create added price: %w", err)
		}
	}

	if err := copyProposalScope(tx, &contract, number, proposal); err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Contract{}).Where("id = ?", contract.ID).
		Update("modified_by", principal.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to stamp amended contract: %w", err)
	}

	return &contract, nil
}

func priceFromProposalProduct(versionID uuid.UUID, p models.ProposalProduct) *models.ContractPrice {
	return &models.ContractPrice{
		ContractVersionID: versionID,
		ProductID:         p.ProductID,
		PriceType:         NormalizePriceType(p.PriceTypeLabel),
		PriceTerms:        p.PriceTerms,
		UOM:               p.UOM,
		EstimatedVolume:   p.EstimatedVolume,
		ActualVolume:      p.ActualVolume,
		BillbacksAllowed:  p.BillbacksAllowed,
	}
}

// copyProposalScope stamps the proposal's scope onto the awarded version.
// Dimensions the proposal does not set are left nil so an amendment carries
// the amended contract's previous scope forward instead of wiping it.
func copyProposalScope(tx *gorm.DB, contract *models.Contract, versionNumber int, proposal *models.Proposal) error {
	req := &ContractVersionRequest{}
	if len(proposal.Distributors) > 0 {
		distributors := make([]uuid.UUID, 0, len(proposal.Distributors))
		for _, d := range proposal.Distributors {
			distributors = append(distributors, d.DistributorID)
		}
		req.DistributorIDs = &distributors
	}
	if len(proposal.OpCos) > 0 {
		opcos := make([]uuid.UUID, 0, len(proposal.OpCos))
		for _, o := range proposal.OpCos {
			opcos = append(opcos, o.OpCoID)
		}
		req.OpCoIDs = &opcos
	}
	if len(proposal.Industries) > 0 {
		industries := make([]uuid.UUID, 0, len(proposal.Industries))
		for _, i := range proposal.Industries {
			industries = append(industries, i.IndustryID)
		}
		req.IndustryIDs = &industries
	}
	return writeScopeAssignments(tx, contract, versionNumber, req)
}
