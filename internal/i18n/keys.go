// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError     = "error.internal"
	KeyValidationInvalid = "validation.invalid"
	KeyRateLimited       = "error.rate_limited"

	// Auth
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"

	// Ledger faults, one per fault kind
	KeyFaultAlreadyExists       = "fault.already_exists"
	KeyFaultExpiredLicense      = "fault.expired_license"
	KeyFaultInsufficientPayment = "fault.insufficient_payment"
	KeyFaultInvalidLicense      = "fault.invalid_license"
	KeyFaultInvalidRoyalty      = "fault.invalid_royalty"
	KeyFaultNotAuthorized       = "fault.not_authorized"
	KeyFaultNotFound            = "fault.not_found"
	KeyFaultTransferFailed      = "fault.transfer_failed"

	// Accounts
	KeyAccountsDisabled = "account.disabled"

	// Storage
	KeyUploadFailed = "upload.failed"
)
