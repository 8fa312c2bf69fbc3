// Package main fills the fittrack db with the workout type catalog and a test user
// with a few weeks of random workouts.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/users"
	"github.com/2beens/fittrack/internal/workouts"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	email := flag.String("email", "test@example.com", "email of the seeded user")
	days := flag.Int("days", 30, "number of past days to generate workouts for")
	seed := flag.Int64("seed", 0, "random seed, 0 for a random one")
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

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatalf("migrate: %s", err)
	}

	workoutsRepo := workouts.NewRepo(dbPool, location)
	var typeIDs []int
	for _, wt := range catalog {
		added, err := workoutsRepo.UpsertType(ctx, wt)
		if err != nil {
			log.Fatalf("upsert workout type %s: %s", wt.Name, err)
		}
		typeIDs = append(typeIDs, added.ID)
	}
	log.Infof("created/updated %d workout types", len(typeIDs))

	faker := gofakeit.New(*seed)
	user, err := users.NewRepo(dbPool).GetOrCreate(ctx, users.Profile{
		Email: *email,
		Name:  faker.Name(),
	})
	if err != nil {
		log.Fatalf("get or create user %s: %s", *email, err)
	}
	log.Infof("seeding workouts for user %d [%s]", user.ID, user.Email)

	generated := generateWorkouts(faker, user.ID, typeIDs, *days, time.Now().In(location))
	for _, w := range generated {
		if _, err := workoutsRepo.Add(ctx, w); err != nil {
			log.Fatalf("add workout: %s", err)
		}
	}
	log.Infof("added %d workouts over the last %d days", len(generated), *days)
}

var catalog = []workouts.WorkoutType{
	{Name: "Cardio", Description: strPtr("Cardiovascular exercises to improve heart health and endurance"), Color: "#10b981"},
	{Name: "Strength", Description: strPtr("Resistance training to build muscle strength and mass"), Color: "#3b82f6"},
	{Name: "Yoga", Description: strPtr("Mind-body practice combining physical poses, breathing, and meditation"), Color: "#f59e0b"},
	{Name: "Swimming", Description: strPtr("Full-body workout in water, excellent for joints and cardiovascular health"), Color: "#06b6d4"},
	{Name: "Cycling", Description: strPtr("Low-impact cardio exercise, great for leg strength and endurance"), Color: "#8b5cf6"},
	{Name: "Running", Description: strPtr("High-impact cardio exercise, builds endurance and burns calories"), Color: "#ef4444"},
}

// generateWorkouts gives every one of the last days (today included) a 70% chance of one workout.
func generateWorkouts(faker *gofakeit.Faker, userID int, typeIDs []int, days int, now time.Time) []workouts.Workout {
	if len(typeIDs) == 0 {
		return nil
	}

	var generated []workouts.Workout
	for i := 0; i < days; i++ {
		if faker.Float64Range(0, 1) >= 0.7 {
			continue
		}

		day := now.AddDate(0, 0, -i)
		performedAt := time.Date(
			day.Year(), day.Month(), day.Day(),
			faker.IntRange(6, 21), faker.IntRange(0, 59), 0, 0,
			now.Location(),
		)
		if performedAt.After(now) {
			performedAt = now
		}

		calories := faker.IntRange(100, 500)
		w := workouts.Workout{
			UserID:        userID,
			WorkoutTypeID: typeIDs[faker.IntRange(0, len(typeIDs)-1)],
			DurationMin:   faker.IntRange(20, 80),
			Calories:      &calories,
			PerformedAt:   performedAt,
		}
		if faker.Bool() {
			w.Notes = strPtr(faker.Sentence(6))
		}
		generated = append(generated, w)
	}

	return generated
}

func strPtr(s string) *string {
	return &s
}
