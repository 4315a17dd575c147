package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID = errors.New("user ID cannot be empty")
	ErrEmptyEmail  = errors.New("email cannot be empty")
)

// MaxDisplayNameLength caps stored display names.
const MaxDisplayNameLength = 100

// User represents a person known to the directory. Users are created
// lazily: the first time an email address sends a delegation or updates
// its profile. They are never deleted.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUser creates a new User with the given email and optional display name.
// It generates a new UUID for the user ID and sets the creation timestamp.
// Returns an error if validation fails.
func NewUser(email, displayName string) (*User, error) {
	user := &User{
		ID:          uuid.New(),
		Email:       NormalizeEmail(email),
		DisplayName: TrimDisplayName(displayName),
		CreatedAt:   time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	return nil
}

// NormalizeEmail lowercases and trims an email address. Email is the
// case-insensitive identity key throughout the system, so every
// comparison and every stored value goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TrimDisplayName trims whitespace and enforces the display name length cap.
// The cap counts runes, not bytes, so multibyte names never get split
// mid-character.
func TrimDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > MaxDisplayNameLength {
		name = string(runes[:MaxDisplayNameLength])
	}
	return name
}

// EmailsEqual reports whether two email addresses identify the same
// principal under case-insensitive comparison.
func EmailsEqual(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}

// validateEmailFormat performs basic validation of email format.
// Returns true if the email appears to be in a valid format.
func validateEmailFormat(email string) bool {
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 0 || atIndex == len(email)-1 {
		return false
	}

	domainPart := email[atIndex+1:]
	if len(domainPart) < 3 { // minimum would be "a.b"
		return false
	}

	dotIndex := strings.IndexByte(domainPart, '.')
	if dotIndex <= 0 || dotIndex == len(domainPart)-1 {
		return false
	}

	return true
}
