// internal/services/proposal_service.go
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

// ProposalService drives the proposal lifecycle:
//
//	requested -> pending -> saved -> submitted -> completed
//
// Requested proposals are created by admin-class users asking a manufacturer
// for pricing; manufacturer edits move them to pending, an explicit save to
// saved. Submission hands the proposal to review; accept or reject completes
// it. Accepting awards contract state inside the same transaction.
type ProposalService struct {
	db            *gorm.DB
	conflicts     *ConflictService
	award         *AwardService
	notifications *NotificationService
}

func NewProposalService(db *gorm.DB, notifications *NotificationService) *ProposalService {
	return &ProposalService{
		db:            db,
		conflicts:     NewConflictService(db),
		award:         NewAwardService(db),
		notifications: notifications,
	}
}

type ProposalProductRequest struct {
	ProductID        uuid.UUID               `json:"product_id" validate:"required"`
	PriceTypeLabel   string                  `json:"price_type_label"`
	PriceTerms       models.PriceTerms       `json:"price_terms"`
	UOM              string                  `json:"uom"`
	EstimatedVolume  *float64                `json:"estimated_volume"`
	ActualVolume     *float64                `json:"actual_volume"`
	BillbacksAllowed bool                    `json:"billbacks_allowed"`
	AmendmentAction  *models.AmendmentAction `json:"amendment_action"`
}

type ProposalRequest struct {
	Title          string              `json:"title" validate:"required,max=255"`
	ProposalType   models.ProposalType `json:"proposal_type" validate:"required"`
	ManufacturerID *uuid.UUID          `json:"manufacturer_id"`
	utils.DateRange
	Notes             string                   `json:"notes"`
	AmendedContractID *uuid.UUID               `json:"amended_contract_id"`
	Products          []ProposalProductRequest `json:"products"`
	DistributorIDs    []uuid.UUID              `json:"distributor_ids"`
	OpCoIDs           []uuid.UUID              `json:"opco_ids"`
	IndustryIDs       []uuid.UUID              `json:"industry_ids"`
}

// ProductDecision is a reviewer's per-product verdict on acceptance.
type ProductDecision struct {
	ProposalProductID uuid.UUID                    `json:"proposal_product_id" validate:"required"`
	Status            models.ProductProposalStatus `json:"status" validate:"required"`
}

type AcceptRequest struct {
	Decisions []ProductDecision `json:"decisions"`
}

func (s *ProposalService) validateRequest(req *ProposalRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return validationf("invalid proposal: %v", err)
	}
	switch req.ProposalType {
	case models.ProposalTypeNewContract, models.ProposalTypeAmendment, models.ProposalTypeRenewal:
	default:
		return validationf("unknown proposal type %q", req.ProposalType)
	}
	if req.ProposalType == models.ProposalTypeAmendment && req.AmendedContractID == nil {
		return validationf("amendment proposals require amended_contract_id")
	}
	for _, p := range req.Products {
		if err := p.PriceTerms.Validate(); err != nil {
			return validationf("product %s: %v", p.ProductID, err)
		}
	}
	return nil
}

// CreateProposal creates a proposal whose initial status depends on who is
// asking: admin-class users request pricing (requested), manufacturer users
// start a draft (saved).
func (s *ProposalService) CreateProposal(principal models.Principal, req *ProposalRequest) (*models.Proposal, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	if req.AmendedContractID != nil {
		var contract models.Contract
		if err := s.db.First(&contract, "id = ?", *req.AmendedContractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFoundf("amended contract %s", *req.AmendedContractID)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	status := models.ProposalStatusSaved
	if principal.IsAdminClass() {
		status = models.ProposalStatusRequested
	}

	proposal := &models.Proposal{
		Title:             req.Title,
		ProposalType:      req.ProposalType,
		ProposalStatus:    status,
		ManufacturerID:    req.ManufacturerID,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Notes:             req.Notes,
		AmendedContractID: req.AmendedContractID,
		CreatedBy:         principal.UserID,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(proposal).Error; err != nil {
			return fmt.Errorf("failed to create proposal: %w", err)
		}
		if err := s.writeProducts(tx, proposal, req.Products, principal, true); err != nil {
			return err
		}
		if err := s.writeScope(tx, proposal.ID, req); err != nil {
			return err
		}
		return s.recordStatusChange(tx, proposal.ID, "", status, principal.UserID)
	})
	if err != nil {
		return nil, err
	}

	if status == models.ProposalStatusRequested && s.notifications != nil {
		go func(p models.Proposal) {
			if err := s.notifications.SendProposalRequestedNotification(&p); err != nil {
				logrus.WithError(err).Warn("Failed to send proposal requested notification")
			}
		}(*proposal)
	}

	return s.GetProposal(proposal.ID)
}

func (s *ProposalService) GetProposal(id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.
		Preload("Manufacturer").
		Preload("Products").
		Preload("Products.Product").
		Preload("Distributors").
		Preload("OpCos").
		Preload("Industries").
		First(&proposal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("proposal %s", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &proposal, nil
}

// ListProposals scopes results to the caller: manufacturer-class users only
// see proposals addressed to their manufacturers.
func (s *ProposalService) ListProposals(principal models.Principal, params utils.PaginationParams, status string) ([]models.Proposal, int64, error) {
	query := s.db.Model(&models.Proposal{}).Preload("Manufacturer")

	if !principal.IsAdminClass() {
		if len(principal.ManufacturerIDs) == 0 {
			return []models.Proposal{}, 0, nil
		}
		query = query.Where("manufacturer_id IN ?", principal.ManufacturerIDs)
	}
	if status != "" {
		query = query.Where("proposal_status = ?", status)
	}
	if params.Search != "" {
		query = query.Where("title ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "proposal_status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var proposals []models.Proposal
	if err := query.Find(&proposals).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch proposals: %w", err)
	}

	return proposals, total, nil
}

var editableStatuses = map[models.ProposalStatus]bool{
	models.ProposalStatusRequested: true,
	models.ProposalStatusPending:   true,
	models.ProposalStatusSaved:     true,
}

// UpdateProposal replaces the proposal's content wholesale. Product review
// statuses survive the replacement for non-admin callers; a manufacturer
// editing a requested proposal moves it to pending.
func (s *ProposalService) UpdateProposal(id uuid.UUID, principal models.Principal, req *ProposalRequest) (*models.Proposal, error) {
	proposal, err := s.GetProposal(id)
	if err != nil {
		return nil, err
	}
	if !editableStatuses[proposal.ProposalStatus] {
		return nil, conflictf("proposal %s is %s and cannot be edited", id, proposal.ProposalStatus)
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	newStatus := proposal.ProposalStatus
	if proposal.ProposalStatus == models.ProposalStatusRequested && !principal.IsAdminClass() {
		newStatus = models.ProposalStatusPending
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":               req.Title,
			"manufacturer_id":     req.ManufacturerID,
			"start_date":          req.StartDate,
			"end_date":            req.EndDate,
			"notes":               req.Notes,
			"amended_contract_id": req.AmendedContractID,
			"modified_by":         principal.UserID,
			"proposal_status":     newStatus,
		}
		if err := tx.Model(&models.Proposal{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update proposal: %w", err)
		}

		if err := s.replaceProducts(tx, proposal, req.Products, principal); err != nil {
			return err
		}

		if err := tx.Where("proposal_id = ?", id).Delete(&models.ProposalDistributor{}).Error; err != nil {
			return fmt.Errorf("failed to clear distributor scope: %w", err)
		}
		if err := tx.Where("proposal_id = ?", id).Delete(&models.ProposalOpCo{}).Error; err != nil {
			return fmt.Errorf("failed to clear opco scope: %w", err)
		}
		if err := tx.Where("proposal_id = ?", id).Delete(&models.ProposalIndustry{}).Error; err != nil {
			return fmt.Errorf("failed to clear industry scope: %w", err)
		}
		if err := s.writeScope(tx, id, req); err != nil {
			return err
		}

		if newStatus != proposal.ProposalStatus {
			return s.recordStatusChange(tx, id, proposal.ProposalStatus, newStatus, principal.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProposal(id)
}

var submittableStatuses = map[models.ProposalStatus]bool{
	models.ProposalStatusRequested: true,
	models.ProposalStatusPending:   true,
	models.ProposalStatusSaved:     true,
}

// SubmitProposal hands the proposal to review.
func (s *ProposalService) SubmitProposal(id uuid.UUID, principal models.Principal) (*models.Proposal, error) {
	proposal, err := s.GetProposal(id)
	if err != nil {
		return nil, err
	}
	if !submittableStatuses[proposal.ProposalStatus] {
		return nil, conflictf("proposal %s is %s and cannot be submitted", id, proposal.ProposalStatus)
	}
	if len(proposal.Products) == 0 {
		return nil, validationf("proposal %s has no products", id)
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		result := tx.Model(&models.Proposal{}).
			Where("id = ? AND proposal_status = ?", id, proposal.ProposalStatus).
			Updates(map[string]interface{}{
				"proposal_status": models.ProposalStatusSubmitted,
				"modified_by":     principal.UserID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to submit proposal: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictf("proposal %s changed status concurrently", id)
		}
		return s.recordStatusChange(tx, id, proposal.ProposalStatus, models.ProposalStatusSubmitted, principal.UserID)
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		go func(p models.Proposal) {
			if err := s.notifications.SendProposalSubmittedNotification(&p); err != nil {
				logrus.WithError(err).Warn("Failed to send proposal submitted notification")
			}
		}(*proposal)
	}

	return s.GetProposal(id)
}

// AcceptProposal completes a submitted proposal and awards contract state.
// Decisions settle each product; undecided products are accepted. Acceptance
// re-runs conflict detection inside the transaction so a contract created
// after the caller's pre-check still blocks the award, and a conditional
// status update guards against two reviewers accepting concurrently.
func (s *ProposalService) AcceptProposal(id uuid.UUID, principal models.Principal, req *AcceptRequest) (*models.Proposal, *models.Contract, error) {
	if !principal.IsAdminClass() {
		return nil, nil, validationf("only reviewers may accept proposals")
	}

	proposal, err := s.GetProposal(id)
	if err != nil {
		return nil, nil, err
	}
	if proposal.ProposalStatus != models.ProposalStatusSubmitted {
		return nil, nil, conflictf("proposal %s is %s, only submitted proposals can be accepted", id, proposal.ProposalStatus)
	}

	decisions := make(map[uuid.UUID]models.ProductProposalStatus, len(req.Decisions))
	for _, d := range req.Decisions {
		if d.Status != models.ProductProposalStatusAccepted && d.Status != models.ProductProposalStatusRejected {
			return nil, nil, validationf("decision for product %s has invalid status %q", d.ProposalProductID, d.Status)
		}
		decisions[d.ProposalProductID] = d.Status
	}

	var contract *models.Contract
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// Settle product statuses first so conflict detection and the award
		// both see the final decision set.
		anyAccepted := false
		for i := range proposal.Products {
			p := &proposal.Products[i]
			newStatus := models.ProductProposalStatusAccepted
			if d, ok := decisions[p.ID]; ok {
				newStatus = d
			}
			if p.Status != newStatus {
				if err := s.recordProductChange(tx, proposal.ID, p, "status_changed", newStatus, principal.UserID); err != nil {
					return err
				}
				if err := tx.Model(&models.ProposalProduct{}).Where("id = ?", p.ID).
					Update("status", newStatus).Error; err != nil {
					return fmt.Errorf("failed to update product status: %w", err)
				}
				p.Status = newStatus
			}
			if newStatus == models.ProductProposalStatusAccepted {
				anyAccepted = true
			}
		}
		if !anyAccepted {
			return validationf("proposal %s has no accepted products; use reject instead", id)
		}

		// Conflict re-check against committed state, inside the transaction.
		input := ConflictInput{
			Scope:     NewScopeResolver(tx).ResolveProposalScope(proposal),
			StartDate: proposal.StartDate,
			EndDate:   proposal.EndDate,
		}
		if proposal.ManufacturerID != nil {
			input.ManufacturerID = *proposal.ManufacturerID
		}
		for _, p := range proposal.Products {
			if p.Status == models.ProductProposalStatusAccepted {
				input.ProductIDs = append(input.ProductIDs, p.ProductID)
			}
		}
		if proposal.ProposalType == models.ProposalTypeAmendment {
			input.ExcludeContractID = proposal.AmendedContractID
		}
		conflicts, err := s.conflicts.withDB(tx).Detect(input)
		if err != nil {
			return err
		}
		if conflicts.HasConflicts {
			return &ConflictError{Result: conflicts}
		}

		// Conditional update: loses the race if another reviewer settled the
		// proposal between our read and here.
		result := tx.Model(&models.Proposal{}).
			Where("id = ? AND proposal_status = ?", id, models.ProposalStatusSubmitted).
			Updates(map[string]interface{}{
				"proposal_status": models.ProposalStatusCompleted,
				"modified_by":     principal.UserID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete proposal: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictf("proposal %s was already decided", id)
		}

		contract, err = s.award.Award(tx, proposal, principal)
		if err != nil {
			return err
		}

		return s.recordStatusChange(tx, id, models.ProposalStatusSubmitted, models.ProposalStatusCompleted, principal.UserID)
	})
	if err != nil {
		return nil, nil, err
	}

	if s.notifications != nil {
		go func(p models.Proposal, c models.Contract) {
			if err := s.notifications.SendProposalDecisionNotification(&p, &c); err != nil {
				logrus.WithError(err).Warn("Failed to send proposal decision notification")
			}
		}(*proposal, *contract)
	}

	updated, err := s.GetProposal(id)
	if err != nil {
		return nil, nil, err
	}
	return updated, contract, nil
}

// RejectProposal completes a submitted proposal with every product rejected
// and no contract state created.
func (s *ProposalService) RejectProposal(id uuid.UUID, principal models.Principal, reason string) (*models.Proposal, error) {
	if !principal.IsAdminClass() {
		return nil, validationf("only reviewers may reject proposals")
	}

	proposal, err := s.GetProposal(id)
	if err != nil {
		return nil, err
	}
	if proposal.ProposalStatus != models.ProposalStatusSubmitted {
		return nil, conflictf("proposal %s is %s, only submitted proposals can be rejected", id, proposal.ProposalStatus)
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		for i := range proposal.Products {
			p := &proposal.Products[i]
			if p.Status == models.ProductProposalStatusRejected {
				continue
			}
			if err := s.recordProductChange(tx, proposal.ID, p, "status_changed", models.ProductProposalStatusRejected, principal.UserID); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.ProposalProduct{}).Where("proposal_id = ?", id).
			Update("status", models.ProductProposalStatusRejected).Error; err != nil {
			return fmt.Errorf("failed to reject products: %w", err)
		}

		updates := map[string]interface{}{
			"proposal_status": models.ProposalStatusCompleted,
			"modified_by":     principal.UserID,
		}
		if reason != "" {
			updates["notes"] = fmt.Sprintf("%s\nRejected: %s", proposal.Notes, reason)
		}
		result := tx.Model(&models.Proposal{}).
			Where("id = ? AND proposal_status = ?", id, models.ProposalStatusSubmitted).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to reject proposal: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictf("proposal %s was already decided", id)
		}

		return s.recordStatusChange(tx, id, models.ProposalStatusSubmitted, models.ProposalStatusCompleted, principal.UserID)
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		go func(p models.Proposal) {
			if err := s.notifications.SendProposalDecisionNotification(&p, nil); err != nil {
				logrus.WithError(err).Warn("Failed to send proposal decision notification")
			}
		}(*proposal)
	}

	return s.GetProposal(id)
}

// CloneProposal duplicates a proposal as a fresh draft: new title, initial
// status per the caller's capability, product statuses reset to pending, no
// history carried over.
func (s *ProposalService) CloneProposal(id uuid.UUID, principal models.Principal) (*models.Proposal, error) {
	source, err := s.GetProposal(id)
	if err != nil {
		return nil, err
	}

	req := &ProposalRequest{
		Title:             "Copy of " + source.Title,
		ProposalType:      source.ProposalType,
		ManufacturerID:    source.ManufacturerID,
		DateRange:         utils.DateRange{StartDate: source.StartDate, EndDate: source.EndDate},
		Notes:             source.Notes,
		AmendedContractID: source.AmendedContractID,
	}
	for _, p := range source.Products {
		req.Products = append(req.Products, ProposalProductRequest{
			ProductID:        p.ProductID,
			PriceTypeLabel:   p.PriceTypeLabel,
			PriceTerms:       p.PriceTerms,
			UOM:              p.UOM,
			EstimatedVolume:  p.EstimatedVolume,
			ActualVolume:     p.ActualVolume,
			BillbacksAllowed: p.BillbacksAllowed,
			AmendmentAction:  p.AmendmentAction,
		})
	}
	for _, d := range source.Distributors {
		req.DistributorIDs = append(req.DistributorIDs, d.DistributorID)
	}
	for _, o := range source.OpCos {
		req.OpCoIDs = append(req.OpCoIDs, o.OpCoID)
	}
	for _, i := range source.Industries {
		req.IndustryIDs = append(req.IndustryIDs, i.IndustryID)
	}

	return s.CreateProposal(principal, req)
}

func (s *ProposalService) GetStatusHistory(id uuid.UUID) ([]models.ProposalStatusHistory, error) {
	if _, err := s.GetProposal(id); err != nil {
		return nil, err
	}
	var history []models.ProposalStatusHistory
	if err := s.db.Where("proposal_id = ?", id).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch status history: %w", err)
	}
	return history, nil
}

func (s *ProposalService) GetProductHistory(id uuid.UUID) ([]models.ProposalProductHistory, error) {
	if _, err := s.GetProposal(id); err != nil {
		return nil, err
	}
	var history []models.ProposalProductHistory
	if err := s.db.Where("proposal_id = ?", id).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch product history: %w", err)
	}
	return history, nil
}

// writeProducts creates product rows for a new proposal. Statuses always
// start pending; fresh reports whether history rows should mark them added.
func (s *ProposalService) writeProducts(tx *gorm.DB, proposal *models.Proposal, products []ProposalProductRequest, principal models.Principal, fresh bool) error {
	for _, p := range products {
		row := &models.ProposalProduct{
			ProposalID:       proposal.ID,
			ProductID:        p.ProductID,
			PriceTypeLabel:   p.PriceTypeLabel,
			PriceTerms:       p.PriceTerms,
			UOM:              p.UOM,
			EstimatedVolume:  p.EstimatedVolume,
			ActualVolume:     p.ActualVolume,
			BillbacksAllowed: p.BillbacksAllowed,
			Status:           models.ProductProposalStatusPending,
			AmendmentAction:  p.AmendmentAction,
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to create proposal product: %w", err)
		}
		if fresh {
			history := &models.ProposalProductHistory{
				ProposalID:        proposal.ID,
				ProposalProductID: &row.ID,
				ProductID:         row.ProductID,
				ChangeType:        "added",
				CurrentValues:     productSnapshot(row),
				ChangedBy:         principal.UserID,
			}
			if err := tx.Create(history).Error; err != nil {
				return fmt.Errorf("failed to record product history: %w", err)
			}
		}
	}
	return nil
}

// replaceProducts applies a full-replacement edit, diffing against the
// existing rows so history captures adds, removals and changes. Review
// statuses carry over by product id for non-admin callers.
func (s *ProposalService) replaceProducts(tx *gorm.DB, proposal *models.Proposal, products []ProposalProductRequest, principal models.Principal) error {
	existing := make(map[uuid.UUID]*models.ProposalProduct, len(proposal.Products))
	for i := range proposal.Products {
		existing[proposal.Products[i].ProductID] = &proposal.Products[i]
	}

	seen := make(map[uuid.UUID]struct{}, len(products))
	for _, p := range products {
		seen[p.ProductID] = struct{}{}

		prev, found := existing[p.ProductID]
		status := models.ProductProposalStatusPending
		if found && !principal.IsAdminClass() {
			status = prev.Status
		}

		if found {
			row := &models.ProposalProduct{
				ProposalID:       proposal.ID,
				ProductID:        p.ProductID,
				PriceTypeLabel:   p.PriceTypeLabel,
				PriceTerms:       p.PriceTerms,
				UOM:              p.UOM,
				EstimatedVolume:  p.EstimatedVolume,
				ActualVolume:     p.ActualVolume,
				BillbacksAllowed: p.BillbacksAllowed,
				Status:           status,
				AmendmentAction:  p.AmendmentAction,
			}
			history := &models.ProposalProductHistory{
				ProposalID:        proposal.ID,
				ProposalProductID: &prev.ID,
				ProductID:         p.ProductID,
				ChangeType:        "updated",
				PreviousValues:    productSnapshot(prev),
				CurrentValues:     productSnapshot(row),
				ChangedBy:         principal.UserID,
			}
			if err := tx.Create(history).Error; err != nil {
				return fmt.Errorf("failed to record product history: %w", err)
			}
			if err := tx.Model(&models.ProposalProduct{}).Where("id = ?", prev.ID).
				Updates(map[string]interface{}{
					"price_type_label":     p.PriceTypeLabel,
					"allowance":            p.PriceTerms.Allowance,
					"commercial_delivered": p.PriceTerms.CommercialDelivered,
					"commercial_fob":       p.PriceTerms.CommercialFOB,
					"commodity_delivered":  p.PriceTerms.CommodityDelivered,
					"commodity_fob":        p.PriceTerms.CommodityFOB,
					"pua":                  p.PriceTerms.PUA,
					"ffs":                  p.PriceTerms.FFS,
					"noi":                  p.PriceTerms.NOI,
					"ptv":                  p.PriceTerms.PTV,
					"uom":                  p.UOM,
					"estimated_volume":     p.EstimatedVolume,
					"actual_volume":        p.ActualVolume,
					"billbacks_allowed":    p.BillbacksAllowed,
					"status":               status,
					"amendment_action":     p.AmendmentAction,
				}).Error; err != nil {
				return fmt.Errorf("failed to update proposal product: %w", err)
			}
			continue
		}

		row := &models.ProposalProduct{
			ProposalID:       proposal.ID,
			ProductID:        p.ProductID,
			PriceTypeLabel:   p.PriceTypeLabel,
			PriceTerms:       p.PriceTerms,
			UOM:              p.UOM,
			EstimatedVolume:  p.EstimatedVolume,
			ActualVolume:     p.ActualVolume,
			BillbacksAllowed: p.BillbacksAllowed,
			Status:           status,
			AmendmentAction:  p.AmendmentAction,
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to create proposal product: %w", err)
		}
		history := &models.ProposalProductHistory{
			ProposalID:        proposal.ID,
			ProposalProductID: &row.ID,
			ProductID:         row.ProductID,
			ChangeType:        "added",
			CurrentValues:     productSnapshot(row),
			ChangedBy:         principal.UserID,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record product history: %w", err)
		}
	}

	for productID, prev := range existing {
		if _, kept := seen[productID]; kept {
			continue
		}
		history := &models.ProposalProductHistory{
			ProposalID:        proposal.ID,
			ProposalProductID: &prev.ID,
			ProductID:         productID,
			ChangeType:        "removed",
			PreviousValues:    productSnapshot(prev),
			ChangedBy:         principal.UserID,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record product history: %w", err)
		}
		if err := tx.Delete(&models.ProposalProduct{}, "id = ?", prev.ID).Error; err != nil {
			return fmt.Errorf("failed to remove proposal product: %w", err)
		}
	}

	return nil
}

func (s *ProposalService) writeScope(tx *gorm.DB, proposalID uuid.UUID, req *ProposalRequest) error {
	for _, id := range req.DistributorIDs {
		row := &models.ProposalDistributor{ProposalID: proposalID, DistributorID: id}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to assign distributor: %w", err)
		}
	}
	for _, id := range req.OpCoIDs {
		row := &models.ProposalOpCo{ProposalID: proposalID, OpCoID: id}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to assign opco: %w", err)
		}
	}
	for _, id := range req.IndustryIDs {
		row := &models.ProposalIndustry{ProposalID: proposalID, IndustryID: id}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to assign industry: %w", err)
		}
	}
	return nil
}

func (s *ProposalService) recordStatusChange(tx *gorm.DB, proposalID uuid.UUID, from, to models.ProposalStatus, changedBy uuid.UUID) error {
	history := &models.ProposalStatusHistory{
		ProposalID: proposalID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
	}
	if err := tx.Create(history).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}

func (s *ProposalService) recordProductChange(tx *gorm.DB, proposalID uuid.UUID, p *models.ProposalProduct, changeType string, newStatus models.ProductProposalStatus, changedBy uuid.UUID) error {
	after := *p
	after.Status = newStatus
	history := &models.ProposalProductHistory{
		ProposalID:        proposalID,
		ProposalProductID: &p.ID,
		ProductID:         p.ProductID,
		ChangeType:        changeType,
		PreviousValues:    productSnapshot(p),
		CurrentValues:     productSnapshot(&after),
		ChangedBy:         changedBy,
	}
	if err := tx.Create(history).Error; err != nil {
		return fmt.Errorf("failed to record product history: %w", err)
	}
	return nil
}

func productSnapshot(p *models.ProposalProduct) models.JSONB {
	return models.JSONB{
		"product_id":        p.ProductID.String(),
		"price_type_label":  p.PriceTypeLabel,
		"price_terms":       p.PriceTerms,
		"uom":               p.UOM,
		"estimated_volume":  p.EstimatedVolume,
		"actual_volume":     p.ActualVolume,
		"billbacks_allowed": p.BillbacksAllowed,
		"status":            string(p.Status),
	}
}
