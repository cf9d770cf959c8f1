package domain

import "time"

// AuthEventType names an entry in the auth audit trail.
type AuthEventType string

const (
	EventRegistered     AuthEventType = "register"
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLogout         AuthEventType = "logout"
)

// AuthEvent records a single authentication action.
// UserID is empty when the actor could not be identified (e.g. failed login).
type AuthEvent struct {
	Type       AuthEventType
	UserID     string
	Email      string
	RemoteAddr string
	UserAgent  string
	OccurredAt time.Time
}
