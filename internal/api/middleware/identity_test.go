package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stickyasks/stickyasks-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDevSecret = "0123456789abcdef0123456789abcdef"

// resolveThrough runs a request through the middleware and returns the
// identity the inner handler saw, if any.
func resolveThrough(t *testing.T, m *IdentityMiddleware, req *http.Request) (service.Identity, int) {
	t.Helper()

	var got service.Identity
	var called bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, called = GetIdentity(r)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	m.Authenticate(inner).ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		require.True(t, called, "inner handler should have run")
	}
	return got, rec.Code
}

func TestIdentityFromEmailHeader(t *testing.T) {
	m := NewIdentityMiddleware("")

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("x-ms-client-principal-email", "Helper@Example.COM")
	req.Header.Set("x-ms-client-principal-name", "The Helper")

	identity, code := resolveThrough(t, m, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "helper@example.com", identity.Email)
	assert.Equal(t, "The Helper", identity.DisplayName)
}

func TestIdentityFromEncodedPrincipal(t *testing.T) {
	m := NewIdentityMiddleware("")

	principal := `{
		"identityProvider": "aad",
		"userId": "abc123",
		"userDetails": "Helper@Example.com",
		"userRoles": ["authenticated"],
		"claims": [{"typ": "name", "val": "The Helper"}]
	}`
	encoded := base64.StdEncoding.EncodeToString([]byte(principal))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("x-ms-client-principal", encoded)

	identity, code := resolveThrough(t, m, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "helper@example.com", identity.Email)
	assert.Equal(t, "The Helper", identity.DisplayName)
}

func TestIdentityFromEncodedPrincipal_Malformed(t *testing.T) {
	m := NewIdentityMiddleware("")

	cases := map[string]string{
		"not base64": "%%%not-base64%%%",
		"not json":   base64.StdEncoding.EncodeToString([]byte("not json")),
		"no user":    base64.StdEncoding.EncodeToString([]byte(`{"claims": []}`)),
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			req.Header.Set("x-ms-client-principal", value)

			_, code := resolveThrough(t, m, req)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}
}

func TestIdentityFromDevToken(t *testing.T) {
	m := NewIdentityMiddleware(testDevSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "Dev@Example.com",
		"name":  "Dev User",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testDevSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	identity, code := resolveThrough(t, m, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dev@example.com", identity.Email)
	assert.Equal(t, "Dev User", identity.DisplayName)
}

func TestIdentityFromDevToken_Rejections(t *testing.T) {
	m := NewIdentityMiddleware(testDevSecret)

	badSignature := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "dev@example.com",
	})
	signedWithWrongKey, err := badSignature.SignedString([]byte("another-secret-another-secret!!!"))
	require.NoError(t, err)

	noEmail := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": "No Email",
	})
	signedNoEmail, err := noEmail.SignedString([]byte(testDevSecret))
	require.NoError(t, err)

	cases := map[string]string{
		"wrong scheme":    "Basic abc",
		"garbage token":   "Bearer garbage",
		"wrong signature": "Bearer " + signedWithWrongKey,
		"no email claim":  "Bearer " + signedNoEmail,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			req.Header.Set("Authorization", header)

			_, code := resolveThrough(t, m, req)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}
}

func TestIdentityDevTokenDisabledWithoutSecret(t *testing.T) {
	m := NewIdentityMiddleware("")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "dev@example.com",
	})
	signed, err := token.SignedString([]byte(testDevSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	_, code := resolveThrough(t, m, req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestIdentityMissing(t *testing.T) {
	m := NewIdentityMiddleware(testDevSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)

	_, code := resolveThrough(t, m, req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEmailHeaderTakesPrecedence(t *testing.T) {
	m := NewIdentityMiddleware("")

	principal := base64.StdEncoding.EncodeToString(
		[]byte(`{"userDetails": "other@example.com"}`))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("x-ms-client-principal-email", "primary@example.com")
	req.Header.Set("x-ms-client-principal", principal)

	identity, code := resolveThrough(t, m, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "primary@example.com", identity.Email)
}
