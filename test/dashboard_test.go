//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/dashboard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestDashboard() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := s.newUser(ctx, t)
	other := s.newUser(ctx, t)
	cardio := s.workoutTypeIDs[testWorkoutTypeCardio]
	running := s.workoutTypeIDs[testWorkoutTypeRunning]

	now := time.Now().UTC()
	s.insertWorkout(ctx, t, user.ID, cardio, 30, 200, now.Add(-time.Second))
	s.insertWorkout(ctx, t, user.ID, running, 40, 400, now.Add(-2*time.Second))
	s.insertWorkout(ctx, t, user.ID, running, 25, 250, now.AddDate(0, 0, -1))
	// a gap on day -2 ends the streak
	s.insertWorkout(ctx, t, user.ID, cardio, 60, 500, now.AddDate(0, 0, -3))
	// other users never leak in
	s.insertWorkout(ctx, t, other.ID, cardio, 90, 900, now.Add(-time.Second))

	t.Run("stats", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/dashboard/stats", user.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var stats dashboard.Stats
		decodeBody(t, resp, &stats)
		assert.Equal(t, dashboard.PeriodStats{Workouts: 2, Minutes: 70, Calories: 600}, stats.Today)
		assert.GreaterOrEqual(t, stats.Week.Workouts, stats.Today.Workouts)
		assert.GreaterOrEqual(t, stats.Month.Workouts, stats.Today.Workouts)
	})

	t.Run("trends", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/dashboard/trends?days=7", user.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var trend []dashboard.TrendPoint
		decodeBody(t, resp, &trend)
		require.Len(t, trend, 8)
		assert.Equal(t, now.Format("2006-01-02"), trend[7].Date)
		assert.Equal(t, dashboard.TrendPoint{Date: trend[7].Date, Workouts: 2, Minutes: 70, Calories: 600}, trend[7])
		assert.Equal(t, 1, trend[6].Workouts)
		assert.Equal(t, 0, trend[5].Workouts)
		assert.Equal(t, 60, trend[4].Minutes)
		assert.Equal(t, dashboard.TrendPoint{Date: trend[0].Date}, trend[0])
	})

	t.Run("trends with invalid days", func(t *testing.T) {
		for _, days := range []string{"0", "366", "abc"} {
			resp := s.doRequest(ctx, t, http.MethodGet, "/dashboard/trends?days="+days, user.Token, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, days)
			require.NoError(t, resp.Body.Close())
		}
	})

	t.Run("goals", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/dashboard/goals", user.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var goals dashboard.GoalProgress
		decodeBody(t, resp, &goals)
		assert.Equal(t, 4, goals.WeeklyGoal)
		assert.Equal(t, 16, goals.MonthlyGoal)
		assert.Equal(t, 2, goals.StreakDays)
		assert.GreaterOrEqual(t, goals.CurrentWeek, 2)
	})

	t.Run("recent", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/dashboard/recent?limit=3", user.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var recent []dashboard.RecentWorkout
		decodeBody(t, resp, &recent)
		require.Len(t, recent, 3)
		assert.Equal(t, testWorkoutTypeCardio, recent[0].WorkoutType.Name)
		assert.Equal(t, 30, recent[0].DurationMin)
		assert.Equal(t, testWorkoutTypeRunning, recent[1].WorkoutType.Name)
		assert.True(t, recent[1].PerformedAt.After(recent[2].PerformedAt))
	})

	t.Run("overview", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/dashboard", user.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var overview dashboard.Overview
		decodeBody(t, resp, &overview)
		assert.Equal(t, 2, overview.Stats.Today.Workouts)
		assert.Len(t, overview.Trend, 31)
		assert.Equal(t, 2, overview.Goals.StreakDays)
		assert.Len(t, overview.RecentWorkouts, 4)
	})

	t.Run("empty user", func(t *testing.T) {
		empty := s.newUser(ctx, t)
		resp := s.doRequest(ctx, t, http.MethodGet, "/dashboard", empty.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var overview dashboard.Overview
		decodeBody(t, resp, &overview)
		assert.Equal(t, dashboard.Stats{}, overview.Stats)
		assert.Equal(t, 0, overview.Goals.StreakDays)
		assert.Empty(t, overview.RecentWorkouts)
		for _, p := range overview.Trend {
			assert.Zero(t, p.Workouts, p.Date)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/dashboard", "", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
