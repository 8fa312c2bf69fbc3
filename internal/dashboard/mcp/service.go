package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/fittrack/internal/dashboard"
	"github.com/2beens/fittrack/internal/workouts"

	"github.com/samber/lo"
)

type dashboardAggregator interface {
	Stats(ctx context.Context, userID int) (dashboard.Stats, error)
	Trend(ctx context.Context, userID int, days int) ([]dashboard.TrendPoint, error)
	Goals(ctx context.Context, userID int) (dashboard.GoalProgress, error)
	Recent(ctx context.Context, userID int, limit int) ([]dashboard.RecentWorkout, error)
	DefaultTrendDays() int
	MaxTrendDays() int
}

type workoutTypes interface {
	All(ctx context.Context) ([]workouts.WorkoutType, error)
}

// contextService is what the tool handlers need; kept as an interface for tests.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	GetWorkoutTypes(ctx context.Context) ([]workouts.WorkoutType, error)
	GetPeriodStats(ctx context.Context, userID int) (dashboard.Stats, error)
	GetTrend(ctx context.Context, userID, days int) ([]dashboard.TrendPoint, error)
	GetGoalProgress(ctx context.Context, userID int) (dashboard.GoalProgress, error)
	GetRecentWorkouts(ctx context.Context, userID, limit int) ([]dashboard.RecentWorkout, error)
	TrendDays() (defaultDays, maxDays int)
}

type ContextService struct {
	schema     SchemaRepo
	types      workoutTypes
	aggregator dashboardAggregator
}

func NewContextService(schema SchemaRepo, types workoutTypes, aggregator dashboardAggregator) *ContextService {
	return &ContextService{
		schema:     schema,
		types:      types,
		aggregator: aggregator,
	}
}

// GetSchema returns the users, workout_types and workouts tables as markdown.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	cols, err := s.schema.GetColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatSchema(cols), nil
}

func formatSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# FitTrack DB Schema\n\nNo fittrack tables found in the database.\n"
	}

	byTable := lo.GroupBy(cols, func(c SchemaColumn) string {
		return c.TableName
	})

	var b strings.Builder
	b.WriteString("# FitTrack DB Schema\n\n")
	for _, tableName := range fittrackTables {
		tableCols, ok := byTable[tableName]
		if !ok {
			continue
		}
		b.WriteString("## " + tableName + "\n\n")
		b.WriteString("| Column | Type | Nullable | Default |\n|--------|------|----------|---------|\n")
		for _, c := range tableCols {
			def := "-"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def))
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n\n") + "\n"
}

func (s *ContextService) GetWorkoutTypes(ctx context.Context) ([]workouts.WorkoutType, error) {
	return s.types.All(ctx)
}

func (s *ContextService) GetPeriodStats(ctx context.Context, userID int) (dashboard.Stats, error) {
	return s.aggregator.Stats(ctx, userID)
}

func (s *ContextService) GetTrend(ctx context.Context, userID, days int) ([]dashboard.TrendPoint, error) {
	return s.aggregator.Trend(ctx, userID, days)
}

// TrendDays returns the configured default and maximum trend window.
func (s *ContextService) TrendDays() (defaultDays, maxDays int) {
	return s.aggregator.DefaultTrendDays(), s.aggregator.MaxTrendDays()
}

func (s *ContextService) GetGoalProgress(ctx context.Context, userID int) (dashboard.GoalProgress, error) {
	return s.aggregator.Goals(dashboard.WithMemo(ctx, dashboard.NewMemo()), userID)
}

func (s *ContextService) GetRecentWorkouts(ctx context.Context, userID, limit int) ([]dashboard.RecentWorkout, error) {
	return s.aggregator.Recent(ctx, userID, limit)
}
