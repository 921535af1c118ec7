package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// UserIDHeader identifies the caller when JWT authentication is disabled,
// typically because an upstream gateway already authenticated the request.
const UserIDHeader = "X-User-ID"

// Claims are the token fields the services rely on.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// HS256Validator verifies HMAC-SHA256 tokens signed with secret. The user ID
// is taken from the user_id claim, falling back to sub.
func HS256Validator(secret []byte) TokenValidator {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(raw string) (*Claims, error) {
		claims := &Claims{}
		token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		if !token.Valid {
			return nil, errors.New("token invalid")
		}
		if claims.UserID == "" {
			claims.UserID = claims.Subject
		}
		if claims.UserID == "" {
			return nil, errors.New("token has no user id")
		}
		return claims, nil
	}
}

// Identity resolves the calling user and stores the ID in the request
// context. With a validator, a bearer token is required. Without one, the
// X-User-ID header is trusted.
func Identity(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if validate == nil {
				userID = strings.TrimSpace(r.Header.Get(UserIDHeader))
				if userID == "" {
					writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+UserIDHeader+" header")
					return
				}
			} else {
				scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
				if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
					writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or malformed bearer token")
					return
				}
				claims, err := validate(token)
				if err != nil {
					writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
					return
				}
				userID = claims.UserID
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID stores the authenticated user ID in ctx.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated user ID or "".
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
