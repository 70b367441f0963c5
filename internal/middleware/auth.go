package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"peerprep/interview/internal/utils"
)

const userIDKey contextKey = "user_id"

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's user id in the request context.
func RequireAuth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := utils.UserIDFromRequest(r, secret)
			if err != nil {
				logger.Debug("Rejected unauthenticated request",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated caller, or "" outside RequireAuth.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
