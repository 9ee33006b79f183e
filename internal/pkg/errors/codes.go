package errors

// Generic codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
)

// Incident codes.
const (
	CodeIncidentNotFound = "INCIDENT_NOT_FOUND"
	CodeSlugConflict     = "SLUG_CONFLICT"
)

// Notification codes.
const (
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
)

// User codes.
const (
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUsernameTaken      = "USERNAME_TAKEN"
)
