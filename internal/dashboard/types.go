package dashboard

import (
	"time"
)

type PeriodStats struct {
	Workouts int `json:"workouts"`
	Minutes  int `json:"minutes"`
	Calories int `json:"calories"`
}

type Stats struct {
	Today PeriodStats `json:"today"`
	Week  PeriodStats `json:"week"`
	Month PeriodStats `json:"month"`
}

// TrendPoint holds the totals of one calendar day.
type TrendPoint struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Workouts int    `json:"workouts"`
	Minutes  int    `json:"minutes"`
	Calories int    `json:"calories"`
}

type GoalProgress struct {
	WeeklyGoal   int `json:"weeklyGoal"`
	CurrentWeek  int `json:"currentWeek"`
	MonthlyGoal  int `json:"monthlyGoal"`
	CurrentMonth int `json:"currentMonth"`
	StreakDays   int `json:"streakDays"`
}

type RecentWorkoutType struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type RecentWorkout struct {
	ID          int               `json:"id"`
	WorkoutType RecentWorkoutType `json:"workoutType"`
	DurationMin int               `json:"durationMin"`
	Calories    *int              `json:"calories"`
	PerformedAt time.Time         `json:"performedAt"`
	Notes       *string           `json:"notes"`
}

// Goals are the workout count targets the progress is measured against.
type Goals struct {
	Weekly  int
	Monthly int
}

const (
	DefaultWeeklyGoal         = 4
	DefaultMonthlyGoal        = 16
	DefaultStreakLookbackDays = 90
	DefaultRecentLimit        = 10
	DefaultTrendDays          = 30
	DefaultMaxTrendDays       = 365
)
