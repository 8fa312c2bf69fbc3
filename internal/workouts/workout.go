package workouts

import (
	"errors"
	"time"
)

var (
	ErrWorkoutNotFound     = errors.New("workout not found")
	ErrWorkoutTypeNotFound = errors.New("workout type not found")
)

type WorkoutType struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Workout struct {
	ID            int          `json:"id"`
	UserID        int          `json:"userId"`
	WorkoutTypeID int          `json:"workoutTypeId"`
	DurationMin   int          `json:"durationMin"`
	Calories      *int         `json:"calories"`
	PerformedAt   time.Time    `json:"performedAt"`
	Notes         *string      `json:"notes"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	WorkoutType   *WorkoutType `json:"workoutType,omitempty"`
}

// Patch holds the fields of a partial workout update. A nil pointer means "unchanged".
// ClearCalories and ClearNotes set the column to NULL.
type Patch struct {
	WorkoutTypeID *int
	DurationMin   *int
	Calories      *int
	ClearCalories bool
	PerformedAt   *time.Time
	Notes         *string
	ClearNotes    bool
}

func (p Patch) Empty() bool {
	return p.WorkoutTypeID == nil &&
		p.DurationMin == nil &&
		p.Calories == nil && !p.ClearCalories &&
		p.PerformedAt == nil &&
		p.Notes == nil && !p.ClearNotes
}

// Range is a half-open time interval [From, To).
type Range struct {
	From time.Time
	To   time.Time
}

// Aggregate is the result of a count/sum query. Sums are nil when nothing matched.
type Aggregate struct {
	Count       int64
	SumDuration *int64
	SumCalories *int64
}

type DayAggregate struct {
	Day string // YYYY-MM-DD in the bucketing timezone
	Aggregate
}

// Totals are the lifetime numbers of a single user.
type Totals struct {
	TotalWorkouts int `json:"totalWorkouts"`
	TotalDuration int `json:"totalDuration"`
	TotalCalories int `json:"totalCalories"`
}

var SortColumns = map[string]string{
	"performedAt": "w.performed_at",
	"durationMin": "w.duration_min",
	"calories":    "w.calories",
	"createdAt":   "w.created_at",
}

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

type ListParams struct {
	UserID        int
	Page          int
	Limit         int
	WorkoutTypeID int
	StartDate     *time.Time
	EndDate       *time.Time
	SortBy        string
	SortOrder     string
}
