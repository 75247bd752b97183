// internal/handlers/master.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nppdirect/pricing-backend/internal/services"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

// MasterHandler exposes the read-only reference data endpoints.
type MasterHandler struct {
	masterService *services.MasterService
}

func NewMasterHandler(masterService *services.MasterService) *MasterHandler {
	return &MasterHandler{masterService: masterService}
}

// GET /manufacturers
func (h *MasterHandler) ListManufacturers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	rows, total, err := h.masterService.ListManufacturers(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}

// GET /distributors
func (h *MasterHandler) ListDistributors(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	rows, total, err := h.masterService.ListDistributors(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}

// GET /opcos?distributor_id=...
func (h *MasterHandler) ListOpCos(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var distributorID *uuid.UUID
	if raw := c.Query("distributor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid distributor ID", nil)
			return
		}
		distributorID = &id
	}

	rows, total, err := h.masterService.ListOpCos(params, distributorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}

// GET /industries
func (h *MasterHandler) ListIndustries(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	rows, total, err := h.masterService.ListIndustries(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}

// GET /products
func (h *MasterHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	rows, total, err := h.masterService.ListProducts(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}
