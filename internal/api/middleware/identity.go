// Package middleware provides the HTTP middleware chain: trace IDs and
// caller identity resolution.
package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stickyasks/stickyasks-api/internal/api/shared"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/redact"
	"github.com/stickyasks/stickyasks-api/internal/service"
)

// Platform identity headers injected by the hosting platform's
// authentication layer. The platform strips any client-supplied values
// before they reach us, so their presence is proof of authentication.
const (
	principalHeader      = "x-ms-client-principal"
	principalEmailHeader = "x-ms-client-principal-email"
	principalNameHeader  = "x-ms-client-principal-name"
)

// clientPrincipal is the JSON document carried base64-encoded in the
// principal header.
type clientPrincipal struct {
	IdentityProvider string           `json:"identityProvider"`
	UserID           string           `json:"userId"`
	UserDetails      string           `json:"userDetails"`
	UserRoles        []string         `json:"userRoles"`
	Claims           []principalClaim `json:"claims"`
}

type principalClaim struct {
	Type  string `json:"typ"`
	Value string `json:"val"`
}

// devTokenClaims is the payload of the local-development bearer token.
type devTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// IdentityMiddleware resolves the caller identity from the platform
// headers, with an optional HS256 bearer-token fallback for local
// development. Requests without a resolvable identity are rejected with
// 401 before reaching any handler.
type IdentityMiddleware struct {
	devJWTSecret []byte
}

// NewIdentityMiddleware creates a new IdentityMiddleware. An empty
// devJWTSecret disables the bearer-token fallback.
func NewIdentityMiddleware(devJWTSecret string) *IdentityMiddleware {
	var secret []byte
	if devJWTSecret != "" {
		secret = []byte(devJWTSecret)
	}
	return &IdentityMiddleware{devJWTSecret: secret}
}

// Authenticate resolves the caller identity and stores it in the request
// context for handlers to read via GetIdentity.
func (m *IdentityMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.resolve(r)
		if err != nil {
			slog.Debug("identity resolution failed",
				"error", redact.Error(err),
				"path", r.URL.Path)
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), shared.IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve tries the identity sources in trust order: the plain principal
// headers, the encoded principal document, then the dev bearer token.
func (m *IdentityMiddleware) resolve(r *http.Request) (service.Identity, error) {
	if email := r.Header.Get(principalEmailHeader); email != "" {
		identity := service.Identity{
			Email:       domain.NormalizeEmail(email),
			DisplayName: domain.TrimDisplayName(r.Header.Get(principalNameHeader)),
		}
		return identity, nil
	}

	if encoded := r.Header.Get(principalHeader); encoded != "" {
		return decodePrincipal(encoded)
	}

	if m.devJWTSecret != nil {
		if auth := r.Header.Get("Authorization"); auth != "" {
			return m.parseDevToken(auth)
		}
	}

	return service.Identity{}, fmt.Errorf("no identity headers present")
}

// decodePrincipal parses the base64 principal document. The email lives
// in userDetails; a "name" claim supplies the display name when present.
func decodePrincipal(encoded string) (service.Identity, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return service.Identity{}, fmt.Errorf("decode principal header: %w", err)
	}

	var principal clientPrincipal
	if err := json.Unmarshal(raw, &principal); err != nil {
		return service.Identity{}, fmt.Errorf("parse principal document: %w", err)
	}
	if principal.UserDetails == "" {
		return service.Identity{}, fmt.Errorf("principal document has no user details")
	}

	identity := service.Identity{
		Email: domain.NormalizeEmail(principal.UserDetails),
	}
	for _, claim := range principal.Claims {
		if claim.Type == "name" && claim.Value != "" {
			identity.DisplayName = domain.TrimDisplayName(claim.Value)
			break
		}
	}
	return identity, nil
}

// parseDevToken validates the local-development HS256 bearer token.
func (m *IdentityMiddleware) parseDevToken(authHeader string) (service.Identity, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return service.Identity{}, fmt.Errorf("invalid authorization format")
	}

	claims := &devTokenClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.devJWTSecret, nil
	})
	if err != nil {
		return service.Identity{}, fmt.Errorf("validate dev token: %w", err)
	}
	if !token.Valid || claims.Email == "" {
		return service.Identity{}, fmt.Errorf("dev token missing email claim")
	}

	return service.Identity{
		Email:       domain.NormalizeEmail(claims.Email),
		DisplayName: domain.TrimDisplayName(claims.Name),
	}, nil
}

// GetIdentity extracts the caller identity from the request context.
// Returns the identity and a boolean indicating if it was found.
func GetIdentity(r *http.Request) (service.Identity, bool) {
	identity, ok := r.Context().Value(shared.IdentityContextKey).(service.Identity)
	return identity, ok
}
