// internal/handlers/user.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-ledger/internal/i18n"
	"github.com/javajoker/imi-ledger/internal/services"
	"github.com/javajoker/imi-ledger/internal/utils"
)

// AccountHandler serves identity balances of the built-in transfer backend.
type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// GET /accounts/:id
func (h *AccountHandler) GetAccount(c *gin.Context) {
	identity, ok := parseIdentity(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), identity)
	if err != nil {
		h.accountError(c, err)
		return
	}

	utils.SuccessResponse(c, account)
}

// POST /accounts/:id/credit
func (h *AccountHandler) CreditAccount(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	identity, ok := parseIdentity(c)
	if !ok {
		return
	}

	var req services.CreditAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.Credit(c.Request.Context(), caller, identity, req.Amount)
	if err != nil {
		h.accountError(c, err)
		return
	}

	utils.SuccessResponse(c, account)
}

func (h *AccountHandler) accountError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrAccountsDisabled) {
		utils.ConflictResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAccountsDisabled))
		return
	}
	utils.FaultResponse(c, err)
}

func parseIdentity(c *gin.Context) (string, bool) {
	identity := c.Param("id")
	if !utils.ValidateIdentity(identity) {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "identity"), nil)
		return "", false
	}
	return identity, true
}
