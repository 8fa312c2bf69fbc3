package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds the fittrack MCP server. It is mounted at /mcp by the main
// backend and served over stdio by cmd/fittrack_mcp.
func NewServer(schema SchemaRepo, types workoutTypes, aggregator dashboardAggregator) *mcp.Server {
	h := NewHandler(NewContextService(schema, types, aggregator))
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "fittrack-dashboard",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_fittrack_schema",
		Description: "Returns the DB schema of the users, workout_types and workouts tables: columns, types, nullable, default.",
	}, h.GetSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_types",
		Description: "Returns all workout types (id, name, description, color) ordered by name.",
	}, h.GetWorkoutTypesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_period_stats",
		Description: "Returns workout count, total minutes and total calories of a user for today, the current week (starting Sunday) and the current month. Arg: user_id.",
	}, h.GetPeriodStatsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_trend",
		Description: "Returns one point per calendar day (date, workouts, minutes, calories) from today-days to today, days without workouts included as zeros. Args: user_id; optional: days (1-365, default 30).",
	}, h.GetWorkoutTrendTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_goal_progress",
		Description: "Returns weekly and monthly workout goals with current progress, and the streak of consecutive days with a workout ending today. Arg: user_id.",
	}, h.GetGoalProgressTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_recent_workouts",
		Description: "Returns the latest workouts of a user, most recent first, with the workout type name. Args: user_id; optional: limit (1-50, default 10).",
	}, h.GetRecentWorkoutsTool())

	return s
}
