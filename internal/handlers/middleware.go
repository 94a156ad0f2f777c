package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"invitetrack/internal/security"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	jwtSecret    []byte
	apiTokenHash []byte
	limiter      *security.Limiter
}

// NewMiddleware creates a new middleware instance. jwtSecret enables
// bearer-token auth; apiTokenHash is a bcrypt hash enabling static
// API-key auth. Either scheme grants access.
func NewMiddleware(jwtSecret, apiTokenHash string, limiter *security.Limiter) *Middleware {
	m := &Middleware{limiter: limiter}
	if jwtSecret != "" {
		m.jwtSecret = []byte(jwtSecret)
	}
	if apiTokenHash != "" {
		m.apiTokenHash = []byte(apiTokenHash)
	}
	return m
}

// RequireAuth is middleware for the service-to-service control surface.
// Accepts an HS256 JWT in the Authorization header or a static token in
// X-API-Key checked against the configured bcrypt hash.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.jwtSecret == nil && m.apiTokenHash == nil {
			respondError(w, http.StatusServiceUnavailable, "API authentication not configured", nil)
			return
		}

		if m.apiTokenHash != nil {
			if key := r.Header.Get("X-API-Key"); key != "" {
				if bcrypt.CompareHashAndPassword(m.apiTokenHash, []byte(key)) == nil {
					next(w, r)
					return
				}
				respondError(w, http.StatusUnauthorized, "Invalid API key", nil)
				return
			}
		}

		if m.jwtSecret != nil {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if found && m.validateJWT(token) {
				next(w, r)
				return
			}
		}

		respondError(w, http.StatusUnauthorized, "Missing or invalid credentials", nil)
	}
}

func (m *Middleware) validateJWT(tokenString string) bool {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		log.Printf("JWT validation failed: %v", err)
		return false
	}
	return token.Valid
}

// RateLimit is middleware that applies the per-client rate limit
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.ClientIP(r)) {
			respondError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
