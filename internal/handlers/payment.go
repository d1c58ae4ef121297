// internal/handlers/payment.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-ledger/internal/i18n"
	"github.com/javajoker/imi-ledger/internal/services"
	"github.com/javajoker/imi-ledger/internal/utils"
)

type RoyaltyHandler struct {
	royaltyService *services.RoyaltyService
}

func NewRoyaltyHandler(royaltyService *services.RoyaltyService) *RoyaltyHandler {
	return &RoyaltyHandler{
		royaltyService: royaltyService,
	}
}

// POST /licenses/:id/royalties
func (h *RoyaltyHandler) PayRoyalty(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.PayRoyaltyRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.royaltyService.PayRoyalty(c.Request.Context(), caller, id, &req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, payment)
}

// GET /licenses/:id/royalty?revenue=
func (h *RoyaltyHandler) CalculateRoyalty(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	revenue, err := strconv.ParseInt(c.Query("revenue"), 10, 64)
	if err != nil || revenue < 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "revenue"), nil)
		return
	}

	quote, err := h.royaltyService.CalculateRoyalty(c.Request.Context(), id, revenue)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, quote)
}

// GET /licenses/:id/valid
func (h *RoyaltyHandler) IsLicenseValid(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	valid, err := h.royaltyService.IsLicenseValid(c.Request.Context(), id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"license_id": id, "valid": valid})
}

// GET /licenses/:id/payments
func (h *RoyaltyHandler) GetLicensePayments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.royaltyService.ListPayments(c.Request.Context(), id, utils.GetPaginationParams(c))
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /payments/:id
func (h *RoyaltyHandler) GetPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	payment, err := h.royaltyService.GetPayment(c.Request.Context(), id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}
