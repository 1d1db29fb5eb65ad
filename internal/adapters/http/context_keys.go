package http

import "context"

// contextKey is a typed key for request context values.
type contextKey string

// claimsContextKey holds the verified token claims (JWT or OIDC).
const claimsContextKey contextKey = "claims"

// Subject returns the "sub" claim of the authenticated caller, if any.
func Subject(ctx context.Context) string {
	claims, _ := ctx.Value(claimsContextKey).(map[string]any)
	sub, _ := claims["sub"].(string)
	return sub
}
