// internal/handlers/renewal.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nppdirect/pricing-backend/internal/i18n"
	"github.com/nppdirect/pricing-backend/internal/services"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

type RenewalHandler struct {
	renewalService *services.RenewalService
}

func NewRenewalHandler(renewalService *services.RenewalService) *RenewalHandler {
	return &RenewalHandler{renewalService: renewalService}
}

// POST /bulk-renewal/validate
func (h *RenewalHandler) ValidateRenewals(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req struct {
		ContractIDs []uuid.UUID `json:"contract_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.renewalService.ValidateRenewals(req.ContractIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /bulk-renewal/create
//
// Always responds 200 with the per-contract result map; individual contract
// failures surface there, not as an HTTP error.
func (h *RenewalHandler) CreateRenewals(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.renewalService.CreateRenewals(principal, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}
