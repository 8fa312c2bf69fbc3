//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/2beens/fittrack/internal/users"
	"github.com/2beens/fittrack/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestRegisterLoginLogout() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := s.newUser(ctx, t)

	t.Run("register with taken email", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodPost, "/a/register", "", users.RegisterRequest{
			Email:    strings.ToUpper(user.Email),
			Name:     "Someone Else",
			Password: testUserPassword,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("register with short password", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodPost, "/a/register", "", users.RegisterRequest{
			Email:    "short@example.com",
			Name:     "Short",
			Password: "short",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var errResp pkg.ErrorResponse
		decodeBody(t, resp, &errResp)
		assert.Equal(t, "Validation Error", errResp.Error)
	})

	cases := map[string]struct {
		loginReq           users.LoginRequest
		expectedStatusCode int
	}{
		"good creds": {
			loginReq:           users.LoginRequest{Email: user.Email, Password: testUserPassword},
			expectedStatusCode: http.StatusOK,
		},
		"bad password": {
			loginReq:           users.LoginRequest{Email: user.Email, Password: "bad-password"},
			expectedStatusCode: http.StatusUnauthorized,
		},
		"unknown email": {
			loginReq:           users.LoginRequest{Email: "nobody@example.com", Password: testUserPassword},
			expectedStatusCode: http.StatusUnauthorized,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			resp := s.doRequest(ctx, t, http.MethodPost, "/a/login", "", tc.loginReq)
			defer resp.Body.Close()
			require.Equal(t, tc.expectedStatusCode, resp.StatusCode)
		})
	}

	t.Run("me, then logout", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/me", user.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var me users.MeResponse
		decodeBody(t, resp, &me)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, user.ID, me.User.ID)
		assert.Equal(t, 0, me.Stats.TotalWorkouts)

		resp = s.doRequest(ctx, t, http.MethodGet, "/a/logout", user.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		resp = s.doRequest(ctx, t, http.MethodGet, "/me", user.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	})

	t.Run("no token", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/me", "", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func (s *IntegrationTestSuite) TestLoginRateLimiting() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// simulate login requests brute force attack
	loginReq := users.LoginRequest{
		Email:    "brute@example.com",
		Password: "test-pass",
	}

	for i := 1; i <= loginRateLimitPerMin+5; i++ {
		resp := s.doRequest(ctx, t, http.MethodPost, "/a/login", "", loginReq)

		if i <= loginRateLimitPerMin {
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "iteration: %d", i)
			assert.Empty(t, resp.Header.Get("Retry-After"), "iteration: %d", i)
		} else {
			require.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "iteration: %d", i)
			retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
			require.NoError(t, err, "iteration: %d", i)
			assert.True(t, retryAfter > 0, "iteration: %d", i)
		}

		assert.NoError(t, resp.Body.Close())
	}

	require.NoError(t, s.redisRateLimitCleanup(ctx))
}
