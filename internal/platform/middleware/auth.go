package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "roadwatch/pkg/domain"
)

// TokenValidator validates bearer tokens presented to the API.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims is what we expect back from the validator. GuardianID is
// always set; SubjectID only for device tokens.
type TokenClaims struct {
	GuardianID id.GuardianID
	SubjectID  id.SubjectID
	Audience   string
}

// Token audiences. Guardian tokens drive the dashboard API; device tokens
// are only accepted by the ingestion endpoints.
const (
	AudienceGuardian = "guardian"
	AudienceDevice   = "device"
)

// RequireAuth rejects requests without a valid bearer token for the given
// audience and stashes the authenticated IDs in the request context.
func RequireAuth(validator TokenValidator, audience string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil || claims.Audience != audience {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyGuardianID, claims.GuardianID)
			if !claims.SubjectID.IsNil() {
				ctx = context.WithValue(ctx, ContextKeySubjectID, claims.SubjectID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
