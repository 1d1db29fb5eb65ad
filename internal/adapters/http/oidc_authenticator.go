package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// IDTokenVerifier is the part of *oidc.IDTokenVerifier the middleware needs.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// OIDCAuthenticator stores the token verifier.
type OIDCAuthenticator struct {
	Verifier IDTokenVerifier
}

// NewOIDCAuthenticator connects to the OIDC provider and creates an authenticator.
func NewOIDCAuthenticator(ctx context.Context, providerURL, clientID string) (*OIDCAuthenticator, error) {
	if providerURL == "" || clientID == "" {
		return nil, fmt.Errorf("OIDC URL and ClientID cannot be empty")
	}

	provider, err := oidc.NewProvider(ctx, providerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &OIDCAuthenticator{Verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// Middleware verifies bearer ID tokens issued by the provider.
func (a *OIDCAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		idToken, err := a.Verifier.Verify(r.Context(), rawToken)
		if err != nil {
			writeJSONError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		var claims map[string]any
		if err := idToken.Claims(&claims); err != nil {
			writeJSONError(w, "Failed to extract claims", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
