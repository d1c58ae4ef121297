// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-ledger/internal/services"
	"github.com/javajoker/imi-ledger/internal/utils"
)

// TreasuryHandler serves the platform settings. Mutations are operator-only;
// the service enforces that, not the route.
type TreasuryHandler struct {
	treasuryService *services.TreasuryService
}

func NewTreasuryHandler(treasuryService *services.TreasuryService) *TreasuryHandler {
	return &TreasuryHandler{
		treasuryService: treasuryService,
	}
}

// GET /platform
func (h *TreasuryHandler) GetPlatform(c *gin.Context) {
	info, err := h.treasuryService.GetPlatform(c.Request.Context())
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, info)
}

// GET /platform/fee-rate
func (h *TreasuryHandler) GetFeeRate(c *gin.Context) {
	rate, err := h.treasuryService.GetFeeRate(c.Request.Context())
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"fee_rate_bp": rate})
}

// PUT /platform/fee-rate
func (h *TreasuryHandler) UpdateFeeRate(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.UpdateFeeRateRequest
	if !bindJSON(c, &req) {
		return
	}

	state, err := h.treasuryService.UpdateFeeRate(c.Request.Context(), caller, *req.FeeRateBp)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"fee_rate_bp": state.FeeRateBp})
}

// POST /platform/withdraw
func (h *TreasuryHandler) Withdraw(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.WithdrawRequest
	if !bindJSON(c, &req) {
		return
	}

	state, err := h.treasuryService.Withdraw(c.Request.Context(), caller, req.Amount)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"withdrawn":        req.Amount,
		"accumulated_fees": state.AccumulatedFees,
	})
}
