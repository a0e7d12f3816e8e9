package domain

import (
	"strconv"
	"time"
)

// TokenPurpose says what a one-time token stored on a user may be used for.
type TokenPurpose string

const (
	TokenNone    TokenPurpose = ""
	TokenConfirm TokenPurpose = "confirm"
	TokenReset   TokenPurpose = "reset"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string // argon2 encoded
	Confirmed    bool

	// TokenHash is the fingerprint of the outstanding one-time token, if any.
	TokenHash    string
	TokenPurpose TokenPurpose

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity returns the user with credentials stripped.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Identity is the authenticated caller attached to a request. It never
// carries the password hash or token.
type Identity struct {
	ID    int64
	Name  string
	Email string
}

// Subject is the normalized string form of the ID, used in session tokens
// and for ownership comparisons.
func (i Identity) Subject() string {
	return FormatID(i.ID)
}

// FormatID is the canonical string form of a numeric key.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID parses a numeric key from a path segment or token subject.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
