package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type Type string

const (
	WorkoutCreated Type = "workout.created"
	WorkoutUpdated Type = "workout.updated"
	WorkoutDeleted Type = "workout.deleted"
)

// Event describes a change of a single workout.
type Event struct {
	Type       Type            `json:"type"`
	WorkoutID  int             `json:"workoutId"`
	UserID     int             `json:"userId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Workout    json.RawMessage `json:"workout,omitempty"`
}

// NewWorkoutEvent builds an event with the workout snapshot embedded. A nil workout is
// allowed (deletes).
func NewWorkoutEvent(eventType Type, userID, workoutID int, workout any, occurredAt time.Time) (Event, error) {
	event := Event{
		Type:       eventType,
		WorkoutID:  workoutID,
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
	}
	if workout == nil {
		return event, nil
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		return Event{}, fmt.Errorf("marshal workout %d: %w", workoutID, err)
	}
	event.Workout = workoutJson
	return event, nil
}
