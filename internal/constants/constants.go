package constants

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 6

	// ContextKeyUserID is the session and gin context key for the authenticated user.
	ContextKeyUserID = "user_id"

	// ContextKeyTask is the gin context key set by RequireTaskAccess.
	ContextKeyTask = "task"

	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "task_session"
)
