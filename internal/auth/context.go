package auth

import (
	"context"
	"net/http"
	"strings"
)

const TokenHeader = "X-FITTRACK-TOKEN"

type userIDKey struct{}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int)
	return userID, ok && userID > 0
}

// TokenFromRequest reads the session token from "Authorization: Bearer <token>",
// falling back to the X-FITTRACK-TOKEN header.
func TokenFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		if token, found := strings.CutPrefix(authz, "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	return r.Header.Get(TokenHeader)
}
