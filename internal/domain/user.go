package domain

import "time"

// User represents an authenticated account in the system.
// Administrative rights come from the server's admin allow-list, not from
// a column here, so granting or revoking admin is a config change.
type User struct {
	Record
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	LastLoginAt  time.Time `json:"last_login_at,omitzero"`
}

// Name returns the user's display name, falling back to the email
// local part when no display name was set.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	for i := range len(u.Email) {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}

// Session represents a refresh session for a logged-in device.
// The token itself is never stored, only its hash.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TokenHash  string    `json:"-"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
