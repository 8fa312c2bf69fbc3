//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/dashboard"
	"github.com/2beens/fittrack/internal/middleware"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type secretTransport struct {
	secret string
	next   http.RoundTripper
}

func (st *secretTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(middleware.MCPSecretHeader, st.secret)
	return st.next.RoundTrip(req)
}

func (s *IntegrationTestSuite) mcpSession(ctx context.Context, t *testing.T, secret string) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "fittrack-test", Version: "1.0.0"}, nil)
	return client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: serverEndpoint + "/mcp",
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &secretTransport{secret: secret, next: http.DefaultTransport},
		},
	}, nil)
}

func (s *IntegrationTestSuite) TestMCP() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := s.newUser(ctx, t)
	s.insertWorkout(ctx, t, user.ID, s.workoutTypeIDs[testWorkoutTypeCardio], 30, 250, time.Now().UTC().Add(-time.Second))

	t.Run("wrong secret", func(t *testing.T) {
		_, err := s.mcpSession(ctx, t, "wrong")
		assert.Error(t, err)
	})

	session, err := s.mcpSession(ctx, t, testMCPSecret)
	require.NoError(t, err)
	defer session.Close()

	t.Run("list tools", func(t *testing.T) {
		res, err := session.ListTools(ctx, nil)
		require.NoError(t, err)
		names := lo.Map(res.Tools, func(tool *mcp.Tool, _ int) string { return tool.Name })
		assert.ElementsMatch(t, []string{
			"get_fittrack_schema",
			"get_workout_types",
			"get_period_stats",
			"get_workout_trend",
			"get_goal_progress",
			"get_recent_workouts",
		}, names)
	})

	t.Run("period stats", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "get_period_stats",
			Arguments: map[string]any{"user_id": user.ID},
		})
		require.NoError(t, err)
		require.False(t, res.IsError)

		var stats dashboard.Stats
		require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &stats))
		assert.Equal(t, dashboard.PeriodStats{Workouts: 1, Minutes: 30, Calories: 250}, stats.Today)
	})

	t.Run("trend with invalid days", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "get_workout_trend",
			Arguments: map[string]any{"user_id": user.ID, "days": 400},
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, toolText(t, res), "Invalid days")
	})

	t.Run("schema", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "get_fittrack_schema"})
		require.NoError(t, err)
		require.False(t, res.IsError)
		text := toolText(t, res)
		assert.Contains(t, text, "workouts")
		assert.Contains(t, text, "performed_at")
	})
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}
