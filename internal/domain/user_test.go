package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	// Test valid user creation
	user, err := NewUser("Test@Example.com", "  Test User  ")

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if user.Email != "test@example.com" {
		t.Errorf("Expected normalized email test@example.com, got %s", user.Email)
	}

	if user.DisplayName != "Test User" {
		t.Errorf("Expected trimmed display name, got %q", user.DisplayName)
	}

	if user.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Test empty email
	_, err = NewUser("", "Someone")
	if err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}

	// Test invalid email
	_, err = NewUser("invalidemail", "Someone")
	if err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}

	// Display name is optional
	user, err = NewUser("noname@example.com", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if user.DisplayName != "" {
		t.Errorf("Expected empty display name, got %q", user.DisplayName)
	}
}

func TestNewUserCapsDisplayName(t *testing.T) {
	long := strings.Repeat("x", MaxDisplayNameLength+50)

	user, err := NewUser("long@example.com", long)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(user.DisplayName) != MaxDisplayNameLength {
		t.Errorf("Expected display name capped at %d, got %d",
			MaxDisplayNameLength, len(user.DisplayName))
	}
}

func TestTrimDisplayNameCountsRunes(t *testing.T) {
	long := strings.Repeat("ü", MaxDisplayNameLength+20)

	got := TrimDisplayName(long)

	if !utf8.ValidString(got) {
		t.Fatalf("Expected valid UTF-8 after truncation, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n != MaxDisplayNameLength {
		t.Errorf("Expected %d runes after truncation, got %d",
			MaxDisplayNameLength, n)
	}
}

func TestUserValidate(t *testing.T) {
	validUser := User{
		ID:    uuid.New(),
		Email: "test@example.com",
	}

	// Test valid user
	if err := validUser.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	// Test invalid ID
	invalidID := validUser
	invalidID.ID = uuid.Nil
	if err := invalidID.Validate(); err != ErrEmptyUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserID, err)
	}

	// Test missing email
	noEmail := validUser
	noEmail.Email = ""
	if err := noEmail.Validate(); err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}

	// Test malformed email
	badEmail := validUser
	badEmail.Email = "not-an-email"
	if err := badEmail.Validate(); err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"Alice@Example.COM ": "alice@example.com",
		" bob@test.org":      "bob@test.org",
		"carol@mail.net":     "carol@mail.net",
	}

	for input, want := range cases {
		if got := NormalizeEmail(input); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestEmailsEqual(t *testing.T) {
	if !EmailsEqual("Alice@Example.com", "alice@example.COM") {
		t.Error("Expected case-insensitive emails to be equal")
	}
	if EmailsEqual("alice@example.com", "bob@example.com") {
		t.Error("Expected different emails to not be equal")
	}
}
