// internal/handlers/license.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-ledger/internal/i18n"
	"github.com/javajoker/imi-ledger/internal/services"
	"github.com/javajoker/imi-ledger/internal/utils"
)

type LicenseHandler struct {
	licenseService    *services.LicenseService
	revenueService    *services.RevenueService
	commitmentService *services.CommitmentService
}

func NewLicenseHandler(licenseService *services.LicenseService, revenueService *services.RevenueService, commitmentService *services.CommitmentService) *LicenseHandler {
	return &LicenseHandler{
		licenseService:    licenseService,
		revenueService:    revenueService,
		commitmentService: commitmentService,
	}
}

// POST /assets/:id/licenses
func (h *LicenseHandler) CreateLicense(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CreateLicenseRequest
	if !bindJSON(c, &req) {
		return
	}

	license, err := h.licenseService.CreateLicense(c.Request.Context(), caller, assetID, &req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, h.licenseService.View(license))
}

// GET /licenses
func (h *LicenseHandler) GetLicenses(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	params := services.ListLicensesParams{
		PaginationParams: utils.GetPaginationParams(c),
		Licensee:         c.Query("licensee"),
		Licensor:         c.Query("licensor"),
	}

	if assetIDStr := c.Query("asset_id"); assetIDStr != "" {
		assetID, err := strconv.ParseUint(assetIDStr, 10, 64)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "asset_id"), nil)
			return
		}
		params.AssetID = assetID
	}

	result, err := h.licenseService.ListLicenses(c.Request.Context(), params)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /licenses/:id
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	license, err := h.licenseService.GetLicense(c.Request.Context(), id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, license)
}

// GET /licenses/:id/usage
func (h *LicenseHandler) GetLicenseUsage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	usage, err := h.revenueService.GetUsage(c.Request.Context(), id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}
	if usage == nil {
		utils.FaultResponse(c, notFoundFault("usage record for license", id))
		return
	}

	utils.SuccessResponse(c, usage)
}

// PUT /licenses/:id/accept
func (h *LicenseHandler) AcceptLicense(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	license, err := h.licenseService.AcceptLicense(c.Request.Context(), caller, id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, h.licenseService.View(license))
}

// PUT /licenses/:id/terminate
func (h *LicenseHandler) TerminateLicense(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	license, err := h.licenseService.TerminateLicense(c.Request.Context(), caller, id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, h.licenseService.View(license))
}

// POST /terms/commitment
func (h *LicenseHandler) CommitTerms(c *gin.Context) {
	var req services.TermsDocument
	if !bindJSON(c, &req) {
		return
	}

	hash, err := h.commitmentService.CommitTerms(&req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"terms_hash": hash})
}

// POST /licenses/:id/terms/verify
func (h *LicenseHandler) VerifyTerms(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.TermsDocument
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.commitmentService.VerifyLicenseTerms(c.Request.Context(), id, &req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}
