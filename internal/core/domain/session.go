package domain

import "time"

// Claims is the verified payload of a session token.
type Claims struct {
	UserID    string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a freshly signed session token and its metadata.
type IssuedToken struct {
	Value     string
	TokenID   string
	ExpiresAt time.Time
}
