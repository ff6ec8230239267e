package middleware

import (
	"context"
	"net/http"
	"strconv"
)

type ContextKey string

const UserIDKey ContextKey = "user_id"

// Identity resolves the caller's user ID from the X-User-ID header set by
// the authenticating gateway in front of this service, and stores it in the
// request context. Requests without a resolvable identity are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "Invalid user identity", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
