package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxRecentLimit = 50

// Handler turns MCP tool calls into service calls and formats the results.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

func (h *Handler) GetSchemaTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

func (h *Handler) GetWorkoutTypesTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		types, err := h.service.GetWorkoutTypes(ctx)
		if err != nil {
			return errorResult("Error fetching workout types: " + err.Error()), nil, nil
		}
		return jsonResult(types), nil, nil
	}
}

// UserInput is the input of the tools that only need a user.
type UserInput struct {
	UserID int `json:"user_id" jsonschema:"Numeric id of the user"`
}

func (h *Handler) GetPeriodStatsTool() func(context.Context, *mcp.CallToolRequest, UserInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in UserInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 {
			return errorResult("Invalid user_id: must be a positive integer"), nil, nil
		}
		stats, err := h.service.GetPeriodStats(ctx, in.UserID)
		if err != nil {
			return errorResult("Error fetching period stats: " + err.Error()), nil, nil
		}
		return jsonResult(stats), nil, nil
	}
}

func (h *Handler) GetGoalProgressTool() func(context.Context, *mcp.CallToolRequest, UserInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in UserInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 {
			return errorResult("Invalid user_id: must be a positive integer"), nil, nil
		}
		goals, err := h.service.GetGoalProgress(ctx, in.UserID)
		if err != nil {
			return errorResult("Error fetching goal progress: " + err.Error()), nil, nil
		}
		return jsonResult(goals), nil, nil
	}
}

// TrendInput is the input for get_workout_trend.
type TrendInput struct {
	UserID int `json:"user_id" jsonschema:"Numeric id of the user"`
	Days   int `json:"days,omitempty" jsonschema:"Number of days before today to include (default 30, at most the configured maximum)"`
}

func (h *Handler) GetWorkoutTrendTool() func(context.Context, *mcp.CallToolRequest, TrendInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in TrendInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 {
			return errorResult("Invalid user_id: must be a positive integer"), nil, nil
		}
		defaultDays, maxDays := h.service.TrendDays()
		days := in.Days
		if days == 0 {
			days = defaultDays
		}
		if days < 1 || days > maxDays {
			return errorResult(fmt.Sprintf("Invalid days: must be between 1 and %d", maxDays)), nil, nil
		}
		trend, err := h.service.GetTrend(ctx, in.UserID, days)
		if err != nil {
			return errorResult("Error fetching workout trend: " + err.Error()), nil, nil
		}
		return jsonResult(trend), nil, nil
	}
}

// RecentInput is the input for get_recent_workouts.
type RecentInput struct {
	UserID int `json:"user_id" jsonschema:"Numeric id of the user"`
	Limit  int `json:"limit,omitempty" jsonschema:"Maximum number of workouts (1-50, default 10)"`
}

func (h *Handler) GetRecentWorkoutsTool() func(context.Context, *mcp.CallToolRequest, RecentInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RecentInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 {
			return errorResult("Invalid user_id: must be a positive integer"), nil, nil
		}
		if in.Limit < 0 || in.Limit > maxRecentLimit {
			return errorResult("Invalid limit: must be between 1 and 50"), nil, nil
		}
		recent, err := h.service.GetRecentWorkouts(ctx, in.UserID, in.Limit)
		if err != nil {
			return errorResult("Error fetching recent workouts: " + err.Error()), nil, nil
		}
		return jsonResult(recent), nil, nil
	}
}
