package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

const MCPSecretHeader = "X-MCP-Secret"

type sessionChecker interface {
	UserID(ctx context.Context, token string) (int, error)
}

type AuthMiddlewareHandler struct {
	mcpSecret            string
	sessionChecker       sessionChecker
	allowedPaths         map[string]bool
	allowedPathsPrefixes []string
}

func NewAuthMiddlewareHandler(
	mcpSecret string,
	sessionChecker sessionChecker,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		mcpSecret:      mcpSecret,
		sessionChecker: sessionChecker,
		allowedPaths: map[string]bool{
			"/":        true,
			"/version": true,

			// login-logout, logout checks the token itself
			"/a/register": true,
			"/a/login":    true,
			"/a/logout":   true,

			"/workout-types": true,
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(path string) bool {
	if h.allowedPaths[path] {
		return true
	}
	for _, prefix := range h.allowedPathsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthCheck resolves the session token of the request to a user id and stores it in
// the request context. The MCP endpoint is guarded by a shared secret instead.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PATCH, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.pathIsAlwaysAllowed(r.URL.Path) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			if strings.HasPrefix(r.URL.Path, "/mcp") {
				secret := r.Header.Get(MCPSecretHeader)
				if h.mcpSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.mcpSecret)) != 1 {
					reqIp, _ := pkg.ReadUserIP(r)
					log.Warnf("unauthorized /mcp request from %s", reqIp)
					writeUnauthorized(w)
					span.SetStatus(codes.Error, "mcp-secret-mismatch")
					return
				}
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := auth.TokenFromRequest(r)
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				writeUnauthorized(w)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			userID, err := h.sessionChecker.UserID(ctx, authToken)
			if err != nil {
				if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrSessionExpired) {
					log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				} else {
					log.Errorf("[failed session check] => %s: %s", r.URL.Path, err)
					span.RecordError(err)
				}
				writeUnauthorized(w)
				span.SetStatus(codes.Error, "not-logged")
				return
			}

			span.SetAttributes(attribute.Int("user.id", userID))
			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	pkg.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required", nil)
}
