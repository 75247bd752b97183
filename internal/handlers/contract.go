// internal/handlers/contract.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nppdirect/pricing-backend/internal/i18n"
	"github.com/nppdirect/pricing-backend/internal/services"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

type ContractHandler struct {
	contractService *services.ContractService
	documentService *services.DocumentService
}

func NewContractHandler(contractService *services.ContractService, documentService *services.DocumentService) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		documentService: documentService,
	}
}

// GET /contracts
func (h *ContractHandler) ListContracts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	contracts, total, err := h.contractService.ListContracts(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(contracts, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /contracts
func (h *ContractHandler) CreateContract(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	contract, err := h.contractService.CreateContract(principal, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, contract)
}

// GET /contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	contract, err := h.contractService.GetContract(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, contract)
}

// GET /contracts/:id/versions
func (h *ContractHandler) ListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	versions, err := h.contractService.ListVersions(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, versions)
}

// POST /contracts/:id/versions
func (h *ContractHandler) CreateVersion(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	var req services.ContractVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	version, err := h.contractService.CreateVersion(id, principal, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyContractVersionAdded),
		"version": version,
	})
}

// PUT /contracts/:id/versions/:versionId
func (h *ContractHandler) UpdateVersion(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}
	versionID, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid version ID", nil)
		return
	}

	var req services.ContractVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	version, err := h.contractService.UpdateVersion(id, versionID, principal, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyContractVersionAdded),
		"version": version,
	})
}

// POST /contracts/:id/cloneVersion/:versionNo
func (h *ContractHandler) CloneVersion(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	versionNo, err := strconv.Atoi(c.Param("versionNo"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid version number", nil)
		return
	}

	version, err := h.contractService.CloneVersionByNumber(id, versionNo, principal)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyContractVersionCloned),
		"version": version,
	})
}

// GET /contracts/:id/versions/compare?a=1&b=2
func (h *ContractHandler) CompareVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	versionA, errA := strconv.Atoi(c.Query("a"))
	versionB, errB := strconv.Atoi(c.Query("b"))
	if errA != nil || errB != nil {
		utils.BadRequestResponse(c, "Query parameters 'a' and 'b' must be version numbers", nil)
		return
	}

	comparison, err := h.contractService.CompareVersions(id, versionA, versionB)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, comparison)
}

// PUT /contracts/:id/suspend
func (h *ContractHandler) SuspendContract(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	var req struct {
		Suspended *bool `json:"suspended"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	suspended := true
	if req.Suspended != nil {
		suspended = *req.Suspended
	}

	contract, err := h.contractService.Suspend(id, principal, suspended)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyContractSuspended),
		"contract": contract,
	})
}

// POST /contracts/:id/documents
func (h *ContractHandler) UploadDocument(c *gin.Context) {
	principal, ok := utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "Missing file", nil)
		return
	}
	defer file.Close()

	var tags []string
	if raw := c.PostForm("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	document, err := h.documentService.UploadDocument(id, principal, file, header, tags)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, document)
}

// GET /contracts/:id/documents
func (h *ContractHandler) ListDocuments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	documents, err := h.documentService.ListDocuments(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, documents)
}

// DELETE /contracts/:id/documents/:documentId
func (h *ContractHandler) DeleteDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}
	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid document ID", nil)
		return
	}

	if err := h.documentService.DeleteDocument(id, documentID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}
