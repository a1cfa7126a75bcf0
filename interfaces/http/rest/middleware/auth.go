package middleware

import (
	"errors"
	"net/http"
	"strings"

	"twinklepod/pkg/auth"
	"twinklepod/pkg/common"
	pkgerrors "twinklepod/pkg/errors"

	"go.uber.org/zap"
)

// UserIDHeader carries the caller identity the Lambda entry point copied from
// the API Gateway authorizer. Client-supplied values are stripped before that.
const UserIDHeader = "X-User-ID"

// Authenticate validates the bearer token and stores its subject as the user id
func Authenticate(validator *auth.JWTValidator, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authentication token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path))

				message := "Invalid token"
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					message = "Token has expired"
				case errors.Is(err, auth.ErrInvalidSignature):
					message = "Invalid token signature"
				}
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(message))
				return
			}

			next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// AuthenticateForLambda trusts the identity header set by the Lambda entry point
func AuthenticateForLambda(errHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(UserIDHeader)
			if userID == "" {
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing user context from API Gateway"))
				return
			}
			next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
		})
	}
}

// extractToken reads the Authorization header, with or without the Bearer prefix
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return authHeader
}
