package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// TerminalLookup returns the shared secret of a registered terminal.
type TerminalLookup func(id string) (secret string, ok bool)

// AuthHandler issues API tokens to registered point-of-sale terminals.
type AuthHandler struct {
	jwtSecret []byte
	ttl       time.Duration
	terminals TerminalLookup
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthHandler(logger *slog.Logger, jwtSecret string, ttl time.Duration, terminals TerminalLookup) *AuthHandler {
	return &AuthHandler{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		terminals: terminals,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// TokenRequest - terminal credentials.
type TokenRequest struct {
	TerminalID string `json:"terminalId" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
}

// TokenResponse - structure for response with token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if resp, status := decodeAndValidate(w, r, h.validate, &req); resp != nil {
		writeJSON(w, status, resp)
		return
	}

	secret, ok := h.terminals(req.TerminalID)
	if !ok || subtle.ConstantTimeCompare([]byte(secret), []byte(req.Secret)) != 1 {
		h.logger.Warn("terminal authentication failed", "terminal_id", req.TerminalID)
		writeJSONError(w, "invalid terminal credentials", http.StatusUnauthorized)
		return
	}

	now := h.now()
	expiresAt := now.Add(h.ttl)
	claims := jwt.MapClaims{
		"sub":   req.TerminalID,
		"roles": []string{"terminal"},
		"exp":   expiresAt.Unix(),
		"iat":   now.Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err)
		writeJSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: tokenString, ExpiresAt: expiresAt.Unix()})
}
