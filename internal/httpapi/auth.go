package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	// ErrMissingToken is returned when a protected route is called without a
	// bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned when the bearer token does not verify.
	ErrInvalidToken = errors.New("invalid token")
)

// parseToken verifies an HS256 token signed with secret. The token must
// carry an expiry.
func parseToken(raw string, secret []byte) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// requireToken rejects requests without a valid bearer token. With no secret
// configured every request passes.
func (h *handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.deps.TokenSecret) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}
		claims, err := parseToken(raw, h.deps.TokenSecret)
		if err != nil {
			h.logger.Warn("rejected token", zap.Error(err))
			writeError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
			return
		}
		h.logger.Debug("token accepted", zap.String("subject", claims.Subject))
		next.ServeHTTP(w, r)
	})
}
