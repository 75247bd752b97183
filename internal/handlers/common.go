// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nppdirect/pricing-backend/internal/i18n"
	"github.com/nppdirect/pricing-backend/internal/services"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

// handleServiceError maps the service error taxonomy onto HTTP responses.
// Conflict detection results ride along as structured details so clients can
// show which contract blocks the proposal.
func handleServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProposalHasConflicts), conflictErr.Result)
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
