// internal/handlers/helpers.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/i18n"
	"github.com/javajoker/imi-ledger/internal/utils"
)

// parseID reads a numeric path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return 0, false
	}
	return id, true
}

// requireCaller returns the authenticated identity, writing a 401 without one.
func requireCaller(c *gin.Context) (string, bool) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return "", false
	}
	return caller, true
}

// bindJSON decodes and validates a request body, writing a 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func notFoundFault(what string, id uint64) error {
	return fault.Newf(fault.NotFound, "%s %d not found", what, id)
}
