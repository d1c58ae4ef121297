// internal/utils/response.go
package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-ledger/internal/fault"
	"github.com/javajoker/imi-ledger/internal/i18n"
)

// Context keys set by middleware.
const (
	ContextKeyCaller    = "caller"
	ContextKeyLang      = "lang"
	ContextKeyRequestID = "request_id"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyInternalError)
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

var faultResponses = map[fault.Kind]struct {
	status int
	key    string
}{
	fault.AlreadyExists:       {http.StatusConflict, i18n.KeyFaultAlreadyExists},
	fault.ExpiredLicense:      {http.StatusUnprocessableEntity, i18n.KeyFaultExpiredLicense},
	fault.InsufficientPayment: {http.StatusPaymentRequired, i18n.KeyFaultInsufficientPayment},
	fault.InvalidLicense:      {http.StatusUnprocessableEntity, i18n.KeyFaultInvalidLicense},
	fault.InvalidRoyalty:      {http.StatusUnprocessableEntity, i18n.KeyFaultInvalidRoyalty},
	fault.NotAuthorized:       {http.StatusForbidden, i18n.KeyFaultNotAuthorized},
	fault.NotFound:            {http.StatusNotFound, i18n.KeyFaultNotFound},
	fault.TransferFailed:      {http.StatusBadGateway, i18n.KeyFaultTransferFailed},
}

// FaultResponse writes a ledger error. Faults keep their kind as the error
// code; anything else is reported as an internal error without detail.
func FaultResponse(c *gin.Context, err error) {
	kind, ok := fault.KindOf(err)
	if !ok {
		c.Error(err)
		InternalErrorResponse(c, "")
		return
	}

	mapping, ok := faultResponses[kind]
	if !ok {
		mapping.status, mapping.key = http.StatusUnprocessableEntity, string(kind)
	}

	lang := GetLangFromContext(c)
	ErrorResponse(c, mapping.status, strings.ToUpper(string(kind)), i18n.T(lang, mapping.key), err.Error())
}

// FaultStatus is the HTTP status FaultResponse uses for kind.
func FaultStatus(kind fault.Kind) int {
	if mapping, ok := faultResponses[kind]; ok {
		return mapping.status
	}
	return http.StatusUnprocessableEntity
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextKeyLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return i18n.DefaultLanguage()
}

// GetCallerFromContext returns the authenticated identity, if any.
func GetCallerFromContext(c *gin.Context) (string, bool) {
	if caller, exists := c.Get(ContextKeyCaller); exists {
		if callerStr, ok := caller.(string); ok && callerStr != "" {
			return callerStr, true
		}
	}
	return "", false
}
