// internal/services/renewal_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/database"
	"github.com/nppdirect/pricing-backend/internal/models"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

// RenewalService creates renewal proposals from expiring contracts in bulk.
// Each contract is processed independently: one contract failing validation
// or creation never blocks the rest, and the caller gets a per-contract
// result map either way.
type RenewalService struct {
	db            *gorm.DB
	resolver      *ScopeResolver
	notifications *NotificationService
}

func NewRenewalService(db *gorm.DB, notifications *NotificationService) *RenewalService {
	return &RenewalService{
		db:            db,
		resolver:      NewScopeResolver(db),
		notifications: notifications,
	}
}

type RenewalRequest struct {
	ContractIDs []uuid.UUID `json:"contract_ids" validate:"required,min=1"`
	utils.DateRange

	// PercentageAdjustment shifts every carried-over price by the given
	// percent; 0 carries prices over unchanged, 5 raises them 5%.
	PercentageAdjustment float64 `json:"percentage_adjustment"`
}

// RenewalOutcome is the per-contract result of a bulk run.
type RenewalOutcome struct {
	ContractID   uuid.UUID  `json:"contract_id"`
	ContractName string     `json:"contract_name,omitempty"`
	Eligible     bool       `json:"eligible"`
	ProposalID   *uuid.UUID `json:"proposal_id,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

type RenewalResult struct {
	Outcomes     []RenewalOutcome `json:"outcomes"`
	CreatedCount int              `json:"created_count"`
	SkippedCount int              `json:"skipped_count"`
}

// ValidateRenewals reports eligibility without creating anything, so the UI
// can preview a bulk run.
func (s *RenewalService) ValidateRenewals(contractIDs []uuid.UUID) (*RenewalResult, error) {
	result := &RenewalResult{Outcomes: []RenewalOutcome{}}
	for _, contractID := range contractIDs {
		outcome := s.checkEligibility(contractID)
		if outcome.Eligible {
			result.CreatedCount++
		} else {
			result.SkippedCount++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

// CreateRenewals runs the bulk renewal. Ineligible and failed contracts are
// reported in the result map; the call itself only errors on invalid input.
func (s *RenewalService) CreateRenewals(principal models.Principal, req *RenewalRequest) (*RenewalResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationf("invalid renewal request: %v", err)
	}

	result := &RenewalResult{Outcomes: []RenewalOutcome{}}
	for _, contractID := range req.ContractIDs {
		outcome := s.checkEligibility(contractID)
		if !outcome.Eligible {
			result.SkippedCount++
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}

		proposal, err := s.renewContract(contractID, principal, req)
		if err != nil {
			logrus.WithError(err).WithField("contract_id", contractID).Warn("Renewal failed for contract")
			outcome.Eligible = false
			outcome.Reason = err.Error()
			result.SkippedCount++
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}

		outcome.ProposalID = &proposal.ID
		result.CreatedCount++
		result.Outcomes = append(result.Outcomes, outcome)

		if s.notifications != nil {
			go func(p models.Proposal, name string) {
				if err := s.notifications.SendRenewalCreatedNotification(&p, name); err != nil {
					logrus.WithError(err).Warn("Failed to send renewal notification")
				}
			}(*proposal, outcome.ContractName)
		}
	}

	return result, nil
}

func (s *RenewalService) checkEligibility(contractID uuid.UUID) RenewalOutcome {
	outcome := RenewalOutcome{ContractID: contractID}

	var contract models.Contract
	if err := s.db.First(&contract, "id = ?", contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome.Reason = "contract not found"
		} else {
			outcome.Reason = "failed to load contract"
		}
		return outcome
	}
	outcome.ContractName = contract.Name

	if contract.IsSuspended {
		outcome.Reason = "contract is suspended"
		return outcome
	}

	if _, err := currentVersion(s.db, contractID); err != nil {
		outcome.Reason = "contract has no versions"
		return outcome
	}

	// Any renewal proposal pointing back at the contract marks it: a
	// completed one means it was already renewed, anything else means a
	// renewal is still in flight.
	var renewals []models.Proposal
	if err := s.db.Select("proposal_status").
		Where("source_contract_id = ?", contractID).
		Find(&renewals).Error; err != nil {
		outcome.Reason = "failed to check existing renewals"
		return outcome
	}
	for _, p := range renewals {
		if p.ProposalStatus == models.ProposalStatusCompleted {
			outcome.Reason = "contract already renewed"
			return outcome
		}
	}
	if len(renewals) > 0 {
		outcome.Reason = "renewal already in progress"
		return outcome
	}

	outcome.Eligible = true
	return outcome
}

// renewContract creates one renewal proposal from the contract's current
// version, carrying over scope and adjusted prices.
func (s *RenewalService) renewContract(contractID uuid.UUID, principal models.Principal, req *RenewalRequest) (*models.Proposal, error) {
	var contract models.Contract
	if err := s.db.First(&contract, "id = ?", contractID).Error; err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	version, err := currentVersion(s.db, contractID)
	if err != nil {
		return nil, err
	}

	scope, err := s.resolver.ResolveVersionScope(contractID, version.VersionNumber)
	if err != nil {
		return nil, err
	}

	status := models.ProposalStatusSaved
	if principal.IsAdminClass() {
		status = models.ProposalStatusRequested
	}

	proposal := &models.Proposal{
		Title:            "Renewal of " + contract.Name,
		ProposalType:     models.ProposalTypeRenewal,
		ProposalStatus:   status,
		ManufacturerID:   &contract.ManufacturerID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		SourceContractID: &contract.ID,
		CreatedBy:        principal.UserID,
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(proposal).Error; err != nil {
			return fmt.Errorf("failed to create renewal proposal: %w", err)
		}

		for _, price := range version.Prices {
			row := &models.ProposalProduct{
				ProposalID:       proposal.ID,
				ProductID:        price.ProductID,
				PriceTypeLabel:   string(price.PriceType),
				PriceTerms:       adjustTerms(price.PriceTerms, req.PercentageAdjustment),
				UOM:              price.UOM,
				EstimatedVolume:  price.EstimatedVolume,
				BillbacksAllowed: price.BillbacksAllowed,
				Status:           models.ProductProposalStatusPending,
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to create renewal product: %w", err)
			}
		}

		for id := range scope.DistributorIDs {
			row := &models.ProposalDistributor{ProposalID: proposal.ID, DistributorID: id}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to carry distributor scope: %w", err)
			}
		}
		for id := range scope.OpCoIDs {
			row := &models.ProposalOpCo{ProposalID: proposal.ID, OpCoID: id}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to carry opco scope: %w", err)
			}
		}
		for id := range scope.IndustryIDs {
			row := &models.ProposalIndustry{ProposalID: proposal.ID, IndustryID: id}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to carry industry scope: %w", err)
			}
		}

		history := &models.ProposalStatusHistory{
			ProposalID: proposal.ID,
			ToStatus:   status,
			ChangedBy:  principal.UserID,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return proposal, nil
}

func adjustTerms(terms models.PriceTerms, percent float64) models.PriceTerms {
	if percent == 0 {
		return terms
	}
	factor := 1 + percent/100
	return models.PriceTerms{
		Allowance:           adjust(terms.Allowance, factor),
		CommercialDelivered: adjust(terms.CommercialDelivered, factor),
		CommercialFOB:       adjust(terms.CommercialFOB, factor),
		CommodityDelivered:  adjust(terms.CommodityDelivered, factor),
		CommodityFOB:        adjust(terms.CommodityFOB, factor),
		PUA:                 adjust(terms.PUA, factor),
		FFS:                 adjust(terms.FFS, factor),
		NOI:                 adjust(terms.NOI, factor),
		PTV:                 adjust(terms.PTV, factor),
	}
}

func adjust(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	adjusted := *v * factor
	return &adjusted
}
