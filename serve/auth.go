package serve

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// HashAPIKey returns the SHA-256 hex digest of a key, the form stored
// in Config.APIKeyHashes. Raw keys are never kept server-side.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// requireAuth admits requests carrying a valid X-API-Key or an HS256
// bearer token. When neither credential source is configured the
// middleware is a pass-through.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	if len(s.config.APIKeyHashes) == 0 && len(s.config.JWTSecret) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" && len(s.config.APIKeyHashes) > 0 {
			if s.validAPIKey(key) {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, bearerPrefix) && len(s.config.JWTSecret) > 0 {
			token := strings.TrimSpace(strings.TrimPrefix(authz, bearerPrefix))
			if err := s.validateJWT(token); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		writeError(w, http.StatusUnauthorized, "missing credentials")
	})
}

func (s *Server) validAPIKey(key string) bool {
	hash := HashAPIKey(key)
	valid := false
	for _, want := range s.config.APIKeyHashes {
		if subtle.ConstantTimeCompare([]byte(hash), []byte(want)) == 1 {
			valid = true
		}
	}
	return valid
}

func (s *Server) validateJWT(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.config.JWTSecret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("token invalid")
	}
	return nil
}
