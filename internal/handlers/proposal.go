// internal/handlers/proposal.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nppdirect/pricing-backend/internal/i18n"
	"github.com/nppdirect/pricing-backend/internal/services"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

type ProposalHandler struct {
	proposalService *services.ProposalService
	conflictService *services.ConflictService
}

func NewProposalHandler(proposalService *services.ProposalService, conflictService *services.ConflictService) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
		conflictService: conflictService,
	}
}

// POST /proposals
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	proposal, err := h.proposalService.CreateProposal(principal, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyProposalCreated),
		"proposal": proposal,
	})
}

// GET /proposals
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	status := c.Query("status")

	proposals, total, err := h.proposalService.ListProposals(principal, params, status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(proposals, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /proposals/:id
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	proposal, err := h.proposalService.GetProposal(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, proposal)
}

// PUT /proposals/:id
func (h *ProposalHandler) UpdateProposal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	var req services.ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	proposal, err := h.proposalService.UpdateProposal(id, principal, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyProposalUpdated),
		"proposal": proposal,
	})
}

// POST /proposals/:id/submit
func (h *ProposalHandler) SubmitProposal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	proposal, err := h.proposalService.SubmitProposal(id, principal)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyProposalSubmitted),
		"proposal": proposal,
	})
}

// POST /proposals/:id/accept
func (h *ProposalHandler) AcceptProposal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	var req services.AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	proposal, contract, err := h.proposalService.AcceptProposal(id, principal, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyProposalAccepted),
		"proposal": proposal,
		"contract": contract,
	})
}

// POST /proposals/:id/reject
func (h *ProposalHandler) RejectProposal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	proposal, err := h.proposalService.RejectProposal(id, principal, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyProposalRejected),
		"proposal": proposal,
	})
}

// POST /proposals/:id/clone
func (h *ProposalHandler) CloneProposal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	proposal, err := h.proposalService.CloneProposal(id, principal)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyProposalCloned),
		"proposal": proposal,
	})
}

// GET /proposals/:id/conflicts
func (h *ProposalHandler) GetProposalConflicts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	result, err := h.conflictService.DetectForProposal(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /proposals/:id/history
func (h *ProposalHandler) GetProposalHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	history, err := h.proposalService.GetStatusHistory(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, history)
}

// GET /proposals/:id/product-history
func (h *ProposalHandler) GetProposalProductHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid proposal ID", nil)
		return
	}

	history, err := h.proposalService.GetProductHistory(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, history)
}
