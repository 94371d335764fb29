// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthProfileUpdated     = "auth.profile_updated"

	// Raffles
	KeyRaffleCreated            = "raffle.created"
	KeyRaffleUpdated            = "raffle.updated"
	KeyRaffleDeleted            = "raffle.deleted"
	KeyRaffleNotFound           = "raffle.not_found"
	KeyRaffleClosed             = "raffle.closed"
	KeyRaffleEmptySelection     = "raffle.empty_selection"
	KeyRaffleNumbersUnavailable = "raffle.numbers_unavailable"
	KeyRafflePurchaseSuccess    = "raffle.purchase_success"
	KeyRaffleBusy               = "raffle.busy"

	// Sellers
	KeySellerRegistered        = "seller.registered"
	KeySellerNotFound          = "seller.not_found"
	KeySellerInvalidCode       = "seller.invalid_code"
	KeySellerAlreadyRegistered = "seller.already_registered"
	KeySellerCodeExhausted     = "seller.code_exhausted"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
	KeyFileDeleted       = "file.deleted"

	// Infrastructure
	KeyRateLimited      = "system.rate_limited"
	KeyStoreUnavailable = "system.store_unavailable"
	KeyInternalError    = "system.internal_error"
)
