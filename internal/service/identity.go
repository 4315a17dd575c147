package service

import "github.com/stickyasks/stickyasks-api/internal/domain"

// Identity is the verified caller identity handed to the services by the
// transport layer. The services trust it unconditionally; verification is
// the identity resolver's problem.
type Identity struct {
	Email       string
	DisplayName string
}

// Name returns the display name, falling back to the email address.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// Is reports whether this identity matches the given email address
// (case-insensitive).
func (i Identity) Is(email string) bool {
	return domain.EmailsEqual(i.Email, email)
}
