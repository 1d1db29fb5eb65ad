package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func terminals(id string) (string, bool) {
	if id == "till-1" {
		return "pw", true
	}
	return "", false
}

func issueToken(t *testing.T) string {
	t.Helper()
	h := NewAuthHandler(slog.Default(), testSecret, time.Hour, terminals)
	rec := doRequest(h.HandleToken, `{"terminalId":"till-1","secret":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHandleToken(t *testing.T) {
	token := issueToken(t)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "till-1", sub)

	h := NewAuthHandler(slog.Default(), testSecret, time.Hour, terminals)
	assert.Equal(t, http.StatusUnauthorized, doRequest(h.HandleToken, `{"terminalId":"till-1","secret":"nope"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(h.HandleToken, `{"terminalId":"till-9","secret":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h.HandleToken, `{"terminalId":"till-1"}`).Code)
}

func protected(mw func(http.Handler) http.Handler) http.Handler {
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(Subject(r.Context())))
	}))
}

func TestJWTMiddleware(t *testing.T) {
	h := protected(JWTMiddleware([]byte(testSecret), slog.Default()))

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("Bearer " + issueToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "till-1", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "till-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+expired).Code)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "till-1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+otherAlg).Code)
}

type failingVerifier struct{}

func (failingVerifier) Verify(context.Context, string) (*oidc.IDToken, error) {
	return nil, errors.New("bad signature")
}

func TestOIDCMiddleware_Rejects(t *testing.T) {
	a := &OIDCAuthenticator{Verifier: failingVerifier{}}
	h := protected(a.Middleware)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x.y.z")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Invalid token"))
}

func TestNewOIDCAuthenticator_RequiresSettings(t *testing.T) {
	_, err := NewOIDCAuthenticator(context.Background(), "", "client")
	assert.Error(t, err)
}
