package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	AdminKey    contextKey = "admin"
	UserRoleKey contextKey = "user_role"

	// AdminCookieName carries the admin token for browser clients
	AdminCookieName = "admin_token"
)

// AuthMiddleware validates the admin JWT from the Authorization header or the admin cookie
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractToken(r)
			if !ok {
				logger.Debug("Missing admin token")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}
			if tokenString == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}
			if !token.Valid {
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				logger.Warn("Missing subject in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				logger.Warn("Missing role in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, subject)
			ctx = context.WithValue(ctx, UserRoleKey, role)

			logger.Debug("Admin authenticated", zap.String("admin", subject), zap.String("role", role))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken prefers the Authorization header. ok is false when neither source is present;
// an empty token with ok true means the header was malformed.
func extractToken(r *http.Request) (token string, ok bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", true
		}
		return parts[1], true
	}

	if cookie, err := r.Cookie(AdminCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// GetAdmin extracts the authenticated admin username from request context
func GetAdmin(ctx context.Context) (string, bool) {
	admin, ok := ctx.Value(AdminKey).(string)
	return admin, ok
}

// GetUserRole extracts the role claim from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
