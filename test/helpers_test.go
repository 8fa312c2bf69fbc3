//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/users"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

type testUser struct {
	ID    int
	Email string
	Token string
}

// newUser registers a fresh user, so tests do not see each other's workouts.
func (s *IntegrationTestSuite) newUser(ctx context.Context, t *testing.T) testUser {
	email := fmt.Sprintf("%d.%s", time.Now().UnixNano(), gofakeit.Email())
	resp := s.doRequest(ctx, t, http.MethodPost, "/a/register", "", users.RegisterRequest{
		Email:    email,
		Name:     gofakeit.Name(),
		Password: testUserPassword,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var loginResp users.LoginResponse
	decodeBody(t, resp, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	require.NotNil(t, loginResp.User)

	return testUser{
		ID:    loginResp.User.ID,
		Email: loginResp.User.Email,
		Token: loginResp.Token,
	}
}

func (s *IntegrationTestSuite) doRequest(
	ctx context.Context,
	t *testing.T,
	method, path, token string,
	body any,
) *http.Response {
	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBytes, v), string(respBytes))
}

// insertWorkout bypasses the api, to place workouts at any point in time.
func (s *IntegrationTestSuite) insertWorkout(
	ctx context.Context,
	t *testing.T,
	userID, typeID, durationMin, calories int,
	performedAt time.Time,
) int {
	var id int
	err := s.DB.QueryRowContext(
		ctx,
		`INSERT INTO workouts (user_id, workout_type_id, duration_min, calories, performed_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id;`,
		userID, typeID, durationMin, calories, performedAt,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
