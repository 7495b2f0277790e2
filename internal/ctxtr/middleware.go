package ctxtr

import (
	"context"
	"errors"
	"net/http"
)

type ctxKey string

const UserIDKey ctxKey = "user_id"

var ErrUserNotFound = errors.New("user not found")

// MockAuthMiddleware binds every request to the same user. There is no
// authentication yet, so userID comes from configuration.
func MockAuthMiddleware(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func UserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", ErrUserNotFound
	}

	return userID, nil
}
