// Package main prints the dashboard of one user to the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/dashboard"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/users"
	"github.com/2beens/fittrack/internal/workouts"
	"github.com/2beens/fittrack/pkg"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	email := flag.String("email", "test@example.com", "email of the user to report on")
	days := flag.Int("days", 30, "trend window in days")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
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
		log.Fatalf("db pool: %s", err)
	}
	defer dbPool.Close()

	user, err := users.NewRepo(dbPool).GetByEmail(ctx, *email)
	if err != nil {
		if pkg.IsUndefinedTableError(err) {
			log.Fatalln("fittrack tables are missing, run cmd/seed or the service with -migrate first")
		}
		log.Fatalf("get user %s: %s", *email, err)
	}

	aggregator := dashboard.NewAggregator(workouts.NewRepo(dbPool, location), dashboard.Config{
		Location: location,
		Goals: dashboard.Goals{
			Weekly:  cfg.Dashboard.WeeklyGoal,
			Monthly: cfg.Dashboard.MonthlyGoal,
		},
		StreakLookbackDays: cfg.Dashboard.StreakLookbackDays,
		MaxTrendDays:       cfg.Dashboard.MaxTrendDays,
	})

	ctx = dashboard.WithMemo(ctx, dashboard.NewMemo())
	var (
		stats dashboard.Stats
		goals dashboard.GoalProgress
		trend []dashboard.TrendPoint
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = aggregator.Stats(gCtx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		goals, err = aggregator.Goals(gCtx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		trend, err = aggregator.Trend(gCtx, user.ID, *days)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("aggregate dashboard: %s", err)
	}

	fmt.Println(render(user.Name, stats, goals, trend))
}
