package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/workouts"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const dayKeyLayout = "2006-01-02"

var ErrStoreUnavailable = errors.New("workout store unavailable")

type Config struct {
	// Location is the timezone calendar days are reckoned in. Defaults to UTC.
	Location           *time.Location
	Goals              Goals
	StreakLookbackDays int
	RecentLimit        int
	MaxTrendDays       int
	DefaultTrendDays   int
	// Metrics is optional.
	Metrics *metrics.Manager
}

// Aggregator computes dashboard summaries from the workouts of a single user.
// It holds no per-call state and is safe for concurrent use.
type Aggregator struct {
	store          Store
	location       *time.Location
	goals          Goals
	streakLookback int
	recentLimit    int
	maxTrendDays   int
	defaultTrend   int
	metricsManager *metrics.Manager

	// Now is used for testing purposes.
	Now func() time.Time
}

func NewAggregator(store Store, config Config) *Aggregator {
	location := config.Location
	if location == nil {
		location = time.UTC
	}
	goals := config.Goals
	if goals.Weekly <= 0 {
		goals.Weekly = DefaultWeeklyGoal
	}
	if goals.Monthly <= 0 {
		goals.Monthly = DefaultMonthlyGoal
	}

	return &Aggregator{
		store:          store,
		location:       location,
		goals:          goals,
		streakLookback: lo.Ternary(config.StreakLookbackDays > 0, config.StreakLookbackDays, DefaultStreakLookbackDays),
		recentLimit:    lo.Ternary(config.RecentLimit > 0, config.RecentLimit, DefaultRecentLimit),
		maxTrendDays:   lo.Ternary(config.MaxTrendDays > 0, config.MaxTrendDays, DefaultMaxTrendDays),
		defaultTrend:   lo.Ternary(config.DefaultTrendDays > 0, config.DefaultTrendDays, DefaultTrendDays),
		metricsManager: config.Metrics,
		Now:            time.Now,
	}
}

func (a *Aggregator) MaxTrendDays() int {
	return a.maxTrendDays
}

func (a *Aggregator) DefaultTrendDays() int {
	return a.defaultTrend
}

func (a *Aggregator) RecentLimit() int {
	return a.recentLimit
}

// Stats returns the totals of today, the current week (starting on Sunday) and
// the current calendar month. A failure of any window fails the whole call.
func (a *Aggregator) Stats(ctx context.Context, userID int) (_ Stats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "aggregator.stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	defer a.observe("stats", time.Now())

	return a.stats(ctx, userID, a.today())
}

func (a *Aggregator) stats(ctx context.Context, userID int, today time.Time) (Stats, error) {
	store := a.storeFor(ctx)
	windows := []workouts.Range{
		{From: today, To: addDays(today, 1)},
		weekOf(today),
		monthOf(today),
	}

	results := make([]PeriodStats, len(windows))
	g, gCtx := errgroup.WithContext(ctx)
	for i, window := range windows {
		g.Go(func() error {
			agg, err := store.CountAndSum(gCtx, userID, window)
			if err != nil {
				return fmt.Errorf("%w: count and sum: %w", ErrStoreUnavailable, err)
			}
			results[i] = periodStatsFrom(agg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	return Stats{
		Today: results[0],
		Week:  results[1],
		Month: results[2],
	}, nil
}

// Trend returns one point per calendar day from today-days up to and including
// today, in ascending order. Days without workouts are zero-filled. days <= 0
// yields only today, and days above the configured maximum are clamped.
func (a *Aggregator) Trend(ctx context.Context, userID int, days int) (_ []TrendPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "aggregator.trend")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	defer a.observe("trend", time.Now())

	days = min(max(days, 0), a.maxTrendDays)
	today := a.today()
	start := addDays(today, -days)

	dayAggs, err := a.storeFor(ctx).GroupByDay(ctx, userID, workouts.Range{
		From: start,
		To:   addDays(today, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: group by day: %w", ErrStoreUnavailable, err)
	}

	byDay := lo.KeyBy(dayAggs, func(d workouts.DayAggregate) string {
		return d.Day
	})

	points := make([]TrendPoint, 0, days+1)
	for i := 0; i <= days; i++ {
		key := addDays(start, i).Format(dayKeyLayout)
		point := TrendPoint{Date: key}
		if agg, ok := byDay[key]; ok {
			stats := periodStatsFrom(agg.Aggregate)
			point.Workouts = stats.Workouts
			point.Minutes = stats.Minutes
			point.Calories = stats.Calories
		}
		points = append(points, point)
	}

	return points, nil
}

// Goals returns the weekly and monthly progress together with the current
// streak of consecutive days with at least one workout, ending today.
func (a *Aggregator) Goals(ctx context.Context, userID int) (_ GoalProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "aggregator.goals")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	defer a.observe("goals", time.Now())

	today := a.today()

	var stats Stats
	var streak int
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = a.stats(gCtx, userID, today)
		return err
	})
	g.Go(func() error {
		var err error
		streak, err = a.streak(gCtx, userID, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return GoalProgress{}, err
	}

	return GoalProgress{
		WeeklyGoal:   a.goals.Weekly,
		CurrentWeek:  stats.Week.Workouts,
		MonthlyGoal:  a.goals.Monthly,
		CurrentMonth: stats.Month.Workouts,
		StreakDays:   streak,
	}, nil
}

func (a *Aggregator) streak(ctx context.Context, userID int, today time.Time) (int, error) {
	dayAggs, err := a.storeFor(ctx).GroupByDay(ctx, userID, workouts.Range{
		From: addDays(today, -(a.streakLookback - 1)),
		To:   addDays(today, 1),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: group by day: %w", ErrStoreUnavailable, err)
	}

	countByDay := make(map[string]int64, len(dayAggs))
	for _, d := range dayAggs {
		countByDay[d.Day] = d.Count
	}

	streak := 0
	for i := 0; i < a.streakLookback; i++ {
		day := addDays(today, -i).Format(dayKeyLayout)
		if countByDay[day] <= 0 {
			break
		}
		streak++
	}

	return streak, nil
}

// Recent returns the latest workouts of the user, most recent first.
// limit <= 0 falls back to the configured default.
func (a *Aggregator) Recent(ctx context.Context, userID int, limit int) (_ []RecentWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "aggregator.recent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	defer a.observe("recent", time.Now())

	if limit <= 0 {
		limit = a.recentLimit
	}

	recent, err := a.storeFor(ctx).ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list recent: %w", ErrStoreUnavailable, err)
	}

	return lo.Map(recent, func(w workouts.Workout, _ int) RecentWorkout {
		rw := RecentWorkout{
			ID:          w.ID,
			DurationMin: w.DurationMin,
			Calories:    w.Calories,
			PerformedAt: w.PerformedAt,
			Notes:       w.Notes,
		}
		if w.WorkoutType != nil {
			rw.WorkoutType = RecentWorkoutType{
				Name:        w.WorkoutType.Name,
				Description: w.WorkoutType.Description,
			}
		}
		return rw
	}), nil
}

func (a *Aggregator) today() time.Time {
	return midnight(a.Now().In(a.location))
}

func (a *Aggregator) storeFor(ctx context.Context) Store {
	if memo := memoFromContext(ctx); memo != nil {
		return &memoStore{store: a.store, memo: memo}
	}
	return a.store
}

func (a *Aggregator) observe(operation string, start time.Time) {
	if a.metricsManager == nil {
		return
	}
	a.metricsManager.HistogramAggregationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return startOfDay(y, m, d, t.Location())
}

// startOfDay returns the first instant of the given (normalized) calendar day.
// In zones that move the clock forward at midnight, 00:00 does not exist and
// the day begins at the transition instead.
func startOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	y, m, d = noon.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if start.Day() != d {
		start, _ = noon.ZoneBounds()
	}
	return start
}

// addDays moves a start of day n calendar days, landing on a start of day again.
func addDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return startOfDay(y, m, d+n, day.Location())
}

func weekOf(today time.Time) workouts.Range {
	start := addDays(today, -int(today.Weekday()))
	return workouts.Range{From: start, To: addDays(start, 7)}
}

func monthOf(today time.Time) workouts.Range {
	loc := today.Location()
	return workouts.Range{
		From: startOfDay(today.Year(), today.Month(), 1, loc),
		To:   startOfDay(today.Year(), today.Month()+1, 1, loc),
	}
}

func periodStatsFrom(agg workouts.Aggregate) PeriodStats {
	return PeriodStats{
		Workouts: int(agg.Count),
		Minutes:  narrow(agg.SumDuration),
		Calories: narrow(agg.SumCalories),
	}
}

// narrow converts a nullable 64-bit sum to int, treating nil as zero.
func narrow(v *int64) int {
	if v == nil {
		return 0
	}
	return int(*v)
}
