// Package main runs the fittrack dashboard MCP server over stdio.
// The same server is mounted on the main backend at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/dashboard"
	dashboardmcp "github.com/2beens/fittrack/internal/dashboard/mcp"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	// stdout belongs to the mcp transport
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	location, err := cfg.Dashboard.Location()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("FITTRACK_DB_PASSWORD"),
	})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer dbPool.Close()

	workoutsRepo := workouts.NewRepo(dbPool, location)
	aggregator := dashboard.NewAggregator(workoutsRepo, dashboard.Config{
		Location: location,
		Goals: dashboard.Goals{
			Weekly:  cfg.Dashboard.WeeklyGoal,
			Monthly: cfg.Dashboard.MonthlyGoal,
		},
		StreakLookbackDays: cfg.Dashboard.StreakLookbackDays,
		RecentLimit:        cfg.Dashboard.RecentLimit,
		MaxTrendDays:       cfg.Dashboard.MaxTrendDays,
		DefaultTrendDays:   cfg.Dashboard.DefaultTrendDays,
	})
	server := dashboardmcp.NewServer(
		dashboardmcp.NewPoolSchemaRepo(dbPool),
		workouts.NewTypesCache(workoutsRepo, cfg.WorkoutTypesCacheTTL.Duration),
		aggregator,
	)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
