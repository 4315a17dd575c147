package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the lifecycle state of a Request.
type RequestStatus string

// Valid request statuses.
const (
	RequestStatusOpen   RequestStatus = "open"
	RequestStatusClosed RequestStatus = "closed"
)

// Request-specific validation errors
var (
	ErrEmptyRequestID = errors.New("request ID cannot be empty")
	ErrEmptySender    = errors.New("request sender cannot be empty")
	ErrEmptyRecipient = errors.New("recipient email cannot be empty")
)

// Request is a delegation of work from one user to a recipient email
// address. At most one Request ever exists per ordered
// (from_user_id, to_email) pair; later delegations between the same pair
// reuse it, reopening it when necessary.
//
// The recipient is identified by email only and may never have a User
// record of its own.
type Request struct {
	ID         uuid.UUID     `json:"id"`
	FromUserID uuid.UUID     `json:"from_user_id"`
	ToEmail    string        `json:"to_email"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ClosedAt   *time.Time    `json:"closed_at,omitempty"`

	// FromEmail is the sender's email, resolved via join when listing.
	// Not a column of the requests relation.
	FromEmail string `json:"from_email,omitempty"`
}

// NewRequest creates a new open Request from the given sender to the
// given recipient email. Returns an error if validation fails.
func NewRequest(fromUserID uuid.UUID, toEmail string) (*Request, error) {
	req := &Request{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToEmail:    NormalizeEmail(toEmail),
		Status:     RequestStatusOpen,
		CreatedAt:  time.Now().UTC(),
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks if the Request has valid data.
func (r *Request) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRequestID
	}
	if r.FromUserID == uuid.Nil {
		return ErrEmptySender
	}
	if r.ToEmail == "" {
		return ErrEmptyRecipient
	}
	if !validateEmailFormat(r.ToEmail) {
		return ErrInvalidEmail
	}
	if r.Status != RequestStatusOpen && r.Status != RequestStatusClosed {
		return ErrInvalidStatus
	}
	return nil
}

// IsParty reports whether the given email belongs to either side of the
// delegation. FromEmail must have been resolved for the sender side to
// match.
func (r *Request) IsParty(email string) bool {
	return EmailsEqual(r.ToEmail, email) ||
		(r.FromEmail != "" && EmailsEqual(r.FromEmail, email))
}
