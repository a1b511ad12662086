package authflow

// Localization keys used by the auth flows. Each flow has its own
// status-to-key table plus a generic fallback.
const (
	KeyLoginUnknown            = "auth.login.unknownError"
	KeyLoginInvalidCredentials = "auth.login.invalidCredentials"
	KeyLoginAccountLocked      = "auth.login.accountLocked"
	KeyLoginServerError        = "auth.login.serverError"
	KeyLoginInvalidResponse    = "auth.login.invalidResponse"
	KeyLoginUnexpectedResponse = "auth.login.unexpectedResponse"

	KeyVerify2FAError = "auth.login.verify2FAError"
	KeyInvalid2FACode = "auth.login.invalid2FACode"

	KeyRegisterUnknown = "auth.register.unknownError"
	KeyLogoutUnknown   = "auth.logout.unknownError"

	KeyForgotUnknown       = "auth.forgotPassword.unknownError"
	KeyForgotEmailNotFound = "auth.forgotPassword.emailNotFound"
	KeyForgotValidation    = "auth.forgotPassword.validationError"
	KeyForgotTooMany       = "auth.forgotPassword.tooManyRequests"
	KeyForgotServerError   = "auth.forgotPassword.serverError"

	KeyResetUnknown      = "auth.resetPassword.unknownError"
	KeyResetInvalidToken = "auth.resetPassword.invalidToken"
	KeyResetValidation   = "auth.resetPassword.validationError"
	KeyResetServerError  = "auth.resetPassword.serverError"

	KeyUpdateUnknown            = "auth.updatePassword.unknownError"
	KeyUpdateInvalidCredentials = "auth.updatePassword.invalidCredentials"
	KeyUpdateValidation         = "auth.updatePassword.validationError"
	KeyUpdateServerError        = "auth.updatePassword.serverError"
)
