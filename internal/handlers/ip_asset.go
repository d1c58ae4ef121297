// internal/handlers/ip_asset.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-ledger/internal/i18n"
	"github.com/javajoker/imi-ledger/internal/services"
	"github.com/javajoker/imi-ledger/internal/utils"
)

type IPAssetHandler struct {
	ipService      *services.IPService
	revenueService *services.RevenueService
	storageService *services.StorageService
}

func NewIPAssetHandler(ipService *services.IPService, revenueService *services.RevenueService, storageService *services.StorageService) *IPAssetHandler {
	return &IPAssetHandler{
		ipService:      ipService,
		revenueService: revenueService,
		storageService: storageService,
	}
}

// POST /assets
func (h *IPAssetHandler) RegisterIPAsset(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req services.RegisterIPRequest
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.ipService.Register(c.Request.Context(), caller, &req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, asset)
}

// GET /assets
func (h *IPAssetHandler) GetIPAssets(c *gin.Context) {
	params := services.ListIPParams{
		PaginationParams: utils.GetPaginationParams(c),
		Owner:            c.Query("owner"),
		ActiveOnly:       c.Query("active") == "true",
	}

	result, err := h.ipService.ListAssets(c.Request.Context(), params)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /assets/:id
func (h *IPAssetHandler) GetIPAsset(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	asset, err := h.ipService.GetAsset(c.Request.Context(), id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, asset)
}

// GET /assets/:id/revenue
func (h *IPAssetHandler) GetIPAssetRevenue(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	revenue, err := h.revenueService.GetRevenue(c.Request.Context(), id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}
	if revenue == nil {
		utils.FaultResponse(c, notFoundFault("revenue record for asset", id))
		return
	}

	utils.SuccessResponse(c, revenue)
}

// PUT /assets/:id/owner
func (h *IPAssetHandler) TransferOwnership(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.TransferOwnershipRequest
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.ipService.TransferOwnership(c.Request.Context(), caller, id, req.NewOwner)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, asset)
}

// PUT /assets/:id/deactivate
func (h *IPAssetHandler) DeactivateIPAsset(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	asset, err := h.ipService.Deactivate(c.Request.Context(), caller, id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, asset)
}

// POST /metadata
func (h *IPAssetHandler) UploadMetadata(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "file"), err.Error())
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadFailed), err.Error())
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadMetadata(c.Request.Context(), caller, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadFailed), err.Error())
		return
	}

	utils.CreatedResponse(c, result)
}
