package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials  ErrCode = "INVALID_CREDENTIALS"
	ErrAccountDeactivated  ErrCode = "ACCOUNT_DEACTIVATED"
	ErrSessionInvalidated  ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired       ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid        ErrCode = "TOKEN_INVALID"
	ErrTokenExpired        ErrCode = "TOKEN_EXPIRED"
	ErrInvalidResetToken   ErrCode = "INVALID_RESET_TOKEN"
	ErrInvalidRole         ErrCode = "INVALID_ROLE"
	ErrInvalidRegistration ErrCode = "INVALID_REGISTRATION_CODE"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation         ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload     ErrCode = "INVALID_PAYLOAD"
	ErrInvalidMediaType   ErrCode = "INVALID_MEDIA_TYPE"
	ErrMessageOrLink      ErrCode = "MESSAGE_OR_LINK_REQUIRED"
	ErrInvalidFilterField ErrCode = "INVALID_FILTER_FIELD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrPageNotFound  ErrCode = "PAGE_NOT_FOUND"
	ErrNoPagesFound  ErrCode = "NO_PAGES_FOUND"
	ErrAdminExists   ErrCode = "ADMIN_ALREADY_EXISTS"
	ErrAdminNotFound ErrCode = "ADMIN_NOT_FOUND"

	// ─── Platform ──────────────────────────────────────────────────────
	ErrTokenExchange ErrCode = "TOKEN_EXCHANGE_FAILED"
	ErrPageFetch     ErrCode = "PAGE_FETCH_FAILED"
	ErrUpstream      ErrCode = "UPSTREAM_ERROR"
	ErrPublish       ErrCode = "PUBLISH_FAILED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired ErrCode = "FILE_REQUIRED"
	ErrFileTooLarge ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrAccountDeactivated:
		return "This account has been deactivated."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrInvalidResetToken:
		return "The password reset token is invalid or has expired."
	case ErrInvalidRole:
		return "Invalid admin role."
	case ErrInvalidRegistration:
		return "The registration code is not valid for this role."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidMediaType:
		return "Media type must be one of text, photo or video."
	case ErrMessageOrLink:
		return "A message or a link is required for text posts."
	case ErrInvalidFilterField:
		return "Pages can only be filtered by detachmentName or districtName."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrPageNotFound:
		return "Page not found."
	case ErrNoPagesFound:
		return "No pages found."
	case ErrAdminExists:
		return "An admin with this email already exists."
	case ErrAdminNotFound:
		return "Admin not found."

	// ─── Platform ──────────────────────────────────────────────────────
	case ErrTokenExchange:
		return "Failed to exchange the access token."
	case ErrPageFetch:
		return "Failed to fetch pages from the platform."
	case ErrUpstream:
		return "The platform request failed."
	case ErrPublish:
		return "Failed to publish the post."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required for photo and video posts."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
