package auth

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
)

type SessionChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewSessionChecker(ttl time.Duration, redisClient *redis.Client) *SessionChecker {
	return &SessionChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

// UserID resolves a session token to the id of the logged-in user.
func (c *SessionChecker) UserID(ctx context.Context, token string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessionChecker.userID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if token == "" {
		return 0, ErrSessionNotFound
	}

	cmd := c.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}

	session, err := parseSession(cmd.Val())
	if err != nil {
		return 0, err
	}
	if time.Since(session.CreatedAt) > c.ttl {
		return 0, ErrSessionExpired
	}

	return session.UserID, nil
}
