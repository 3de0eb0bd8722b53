package middleware

import (
	"context"
	"net/http"
	"strings"
)

const (
	// UserIDHeader carries the customer id set by the upstream auth proxy.
	UserIDHeader = "X-User-ID"

	// AdminEmailHeader carries the operator's email set by the upstream auth proxy.
	AdminEmailHeader = "X-Admin-Email"

	userIDContextKey     contextKey = "user_id"
	adminEmailContextKey contextKey = "admin_email"
)

// WithUser stores the X-User-ID header in the context. Authentication
// happens upstream; requests without the header continue as guests.
func WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects guest requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			respondUnauthorized(w, r, "Sign in to view your orders")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID returns the customer id, or "" for guests.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return id
}

// RequireAdmin allows only requests whose X-Admin-Email is in allowed.
// Comparison is case-insensitive. An empty allow-list denies everyone.
func RequireAdmin(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, email := range allowed {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			set[email] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := strings.ToLower(strings.TrimSpace(r.Header.Get(AdminEmailHeader)))
			if email == "" {
				respondUnauthorized(w, r, "Authentication required")
				return
			}
			if _, ok := set[email]; !ok {
				GetLogger(r.Context()).Warn("admin access denied", "admin_email", email)
				respondForbidden(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), adminEmailContextKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminEmail returns the operator email accepted by RequireAdmin.
func GetAdminEmail(ctx context.Context) string {
	email, _ := ctx.Value(adminEmailContextKey).(string)
	return email
}
