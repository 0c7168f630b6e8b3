// Package httpapi is the gorilla/mux-based HTTP surface: admin CRUD, join,
// submit-answer, leaderboard, state-sync, time-sync and admin login. It
// shares the room controller's serialization with the socket path — every
// handler that mutates room state routes through Room.Do.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nrgchamp/quizhub/internal/apierr"
)

const adminRole = "admin"

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// IssueToken signs a 24h (configurable) bearer token for username with a
// {sub, role:"admin", iat, exp} claim set.
func IssueToken(secret []byte, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: adminRole,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(secret)
}

// verifyToken parses and validates a bearer token, returning the subject.
func verifyToken(secret []byte, tokenStr string) (string, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return "", apierr.New(apierr.KindForbidden, "invalid or expired token")
	}
	c, ok := tok.Claims.(*claims)
	if !ok || c.Role != adminRole {
		return "", apierr.New(apierr.KindForbidden, "token missing admin role")
	}
	return c.Subject, nil
}

type contextKey string

const ctxKeyAdminUser contextKey = "admin_user"

// requireAdmin is the middleware gating admin-only routes: missing or
// malformed bearer -> 401, invalid/expired/wrong-role -> 403.
func requireAdmin(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			tokenStr := strings.TrimPrefix(header, "Bearer ")
			sub, err := verifyToken(secret, tokenStr)
			if err != nil {
				apierr.WriteHTTP(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyAdminUser, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminTokenValid reports whether a raw "Bearer ..." header (or bare token)
// is a valid admin token, used to gate the ws upgrade's admin path.
func AdminTokenValid(secret []byte, header string) bool {
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return false
	}
	_, err := verifyToken(secret, tokenStr)
	return err == nil
}
