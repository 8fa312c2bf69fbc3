//go:build integration_test || all_tests

package test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestWorkoutTypes() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// public, no token needed
	resp := s.doRequest(ctx, t, http.MethodGet, "/workout-types", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []workouts.WorkoutType
	decodeBody(t, resp, &types)
	require.Len(t, types, 2)
	// ordered by name
	assert.Equal(t, testWorkoutTypeCardio, types[0].Name)
	assert.Equal(t, testWorkoutTypeRunning, types[1].Name)
	assert.Equal(t, "#ef4444", types[1].Color)
}

func (s *IntegrationTestSuite) TestWorkoutsCRUD() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := s.newUser(ctx, t)
	other := s.newUser(ctx, t)
	calories := 350
	notes := "morning run"

	resp := s.doRequest(ctx, t, http.MethodPost, "/workouts", user.Token, workouts.CreateWorkoutRequest{
		WorkoutTypeID: s.workoutTypeIDs[testWorkoutTypeRunning],
		DurationMin:   45,
		Calories:      &calories,
		PerformedAt:   time.Now().UTC().Add(-time.Hour).Truncate(time.Second),
		Notes:         &notes,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created workouts.Workout
	decodeBody(t, resp, &created)
	require.NoError(t, resp.Body.Close())
	require.Positive(t, created.ID)
	assert.Equal(t, user.ID, created.UserID)
	require.NotNil(t, created.WorkoutType)
	assert.Equal(t, testWorkoutTypeRunning, created.WorkoutType.Name)
	workoutPath := fmt.Sprintf("/workouts/%d", created.ID)

	t.Run("create with unknown type", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodPost, "/workouts", user.Token, workouts.CreateWorkoutRequest{
			WorkoutTypeID: 99999,
			DurationMin:   30,
			PerformedAt:   time.Now(),
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("create with invalid duration", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodPost, "/workouts", user.Token, workouts.CreateWorkoutRequest{
			WorkoutTypeID: s.workoutTypeIDs[testWorkoutTypeCardio],
			DurationMin:   0,
			PerformedAt:   time.Now(),
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("get", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, workoutPath, user.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got workouts.Workout
		decodeBody(t, resp, &got)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, 45, got.DurationMin)
		require.NotNil(t, got.Notes)
		assert.Equal(t, notes, *got.Notes)
	})

	t.Run("other user cannot see it", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, workoutPath, other.Token, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("patch clears notes", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodPatch, workoutPath, user.Token, map[string]any{
			"durationMin": 50,
			"notes":       nil,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated workouts.Workout
		decodeBody(t, resp, &updated)
		assert.Equal(t, 50, updated.DurationMin)
		assert.Nil(t, updated.Notes)
		require.NotNil(t, updated.Calories)
		assert.Equal(t, calories, *updated.Calories)
	})

	t.Run("empty patch", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodPatch, workoutPath, user.Token, map[string]any{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodGet, "/workouts?limit=5", user.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list workouts.ListResponse
		decodeBody(t, resp, &list)
		require.Len(t, list.Workouts, 1)
		assert.Equal(t, 1, list.Pagination.Total)
		assert.Equal(t, 5, list.Pagination.Limit)
	})

	t.Run("delete", func(t *testing.T) {
		resp := s.doRequest(ctx, t, http.MethodDelete, workoutPath, other.Token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		resp = s.doRequest(ctx, t, http.MethodDelete, workoutPath, user.Token, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		resp = s.doRequest(ctx, t, http.MethodGet, workoutPath, user.Token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	})
}
