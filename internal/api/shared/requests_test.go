package shared

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
	}{
		{
			name:        "valid json",
			requestBody: `{"title": "Fix the door", "priority": 3}`,
			wantErr:     false,
		},
		{
			name:        "invalid json",
			requestBody: `{"title": "Fix the door",}`,
			wantErr:     true,
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost,
				"/test",
				bytes.NewBufferString(tc.requestBody),
			)

			var target struct {
				Title    string `json:"title"`
				Priority int    `json:"priority"`
			}
			err := DecodeJSON(req, &target)

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Fix the door", target.Title)
			assert.Equal(t, 3, target.Priority)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type body struct {
		Email string `validate:"required,email"`
	}

	assert.NoError(t, ValidateRequest(body{Email: "helper@example.com"}))
	assert.Error(t, ValidateRequest(body{Email: "not-an-email"}))
	assert.Error(t, ValidateRequest(body{}))
}

// selfValidating exercises the branch where the struct brings its own
// Validate method instead of tags.
type selfValidating struct {
	err error
}

func (s selfValidating) Validate() error { return s.err }

func TestValidateRequest_ValidateInterface(t *testing.T) {
	assert.NoError(t, ValidateRequest(selfValidating{}))

	wantErr := errors.New("bad payload")
	assert.ErrorIs(t, ValidateRequest(selfValidating{err: wantErr}), wantErr)
}
