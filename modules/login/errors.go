package login

import "errors"

var (
	ErrFlowNotFound          = errors.New("login.flow_not_found")
	ErrFlowCorrupted         = errors.New("login.flow_corrupted")
	ErrValidation            = errors.New("login.validation_failed")
	ErrCredentialsRejected   = errors.New("login.credentials_rejected")
	ErrProviderUnknown       = errors.New("login.provider_unknown")
	ErrProviderRestricted    = errors.New("login.provider_restricted")
	ErrProviderFailed        = errors.New("login.provider_failed")
	ErrMissingExternalClaims = errors.New("login.missing_external_claims")
	ErrCSRFRejected          = errors.New("login.csrf_rejected")
	ErrLocalLoginDisabled    = errors.New("login.local_login_disabled")
	ErrNoLoginMethod         = errors.New("login.no_login_method")
	ErrThrottled             = errors.New("login.throttled")

	ErrMissingDependency = errors.New("login.missing_dependency")
)

// Messages shown to the user. Backend Error results are shown verbatim
// instead.
const (
	MsgInvalidCredentials   = "Invalid username or password."
	MsgUsernameRequired     = "Username is required."
	MsgThrottled            = "Too many failed login attempts. Please try again later."
	MsgNoMatchingAccount    = "No matching external account found."
	MsgFlowCorrupted        = "Your sign-in request is no longer valid. Please start again from the application."
	MsgProviderRestricted   = "The selected identity provider is not allowed for this application."
	MsgProviderFailed       = "There was an error signing in with the external identity provider."
	MsgLocalLoginDisabled   = "Local login is disabled for this application."
	MsgNoLoginMethod        = "There is no way to sign in to this application."
	MsgCSRFRejected         = "The request could not be verified. Please reload the page and try again."
	MsgUnexpectedError      = "An unexpected error occurred."
	MsgNoPartialLoginFound  = "There is no pending sign-in to resume."
	MsgResumeMismatch       = "The sign-in you are trying to resume does not match the pending one."
	MsgExternalLoginAborted = "Sign-in with the external identity provider was cancelled or failed."
)

// messageKeys maps built-in messages to translation keys.
var messageKeys = map[string]string{
	MsgInvalidCredentials:   "login.invalid_credentials",
	MsgUsernameRequired:     "login.username_required",
	MsgThrottled:            "login.throttled",
	MsgNoMatchingAccount:    "login.no_matching_account",
	MsgFlowCorrupted:        "login.flow_corrupted",
	MsgProviderRestricted:   "login.provider_restricted",
	MsgProviderFailed:       "login.provider_failed",
	MsgLocalLoginDisabled:   "login.local_login_disabled",
	MsgNoLoginMethod:        "login.no_login_method",
	MsgCSRFRejected:         "login.csrf_rejected",
	MsgUnexpectedError:      "login.unexpected_error",
	MsgNoPartialLoginFound:  "login.no_partial_login",
	MsgResumeMismatch:       "login.resume_mismatch",
	MsgExternalLoginAborted: "login.external_login_aborted",
}
