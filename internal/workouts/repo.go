package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leporo/sqlf"
	"go.opentelemetry.io/otel/attribute"
)

const workoutColumns = `w.id, w.user_id, w.workout_type_id, w.duration_min, w.calories, w.performed_at, w.notes,
	w.created_at, w.updated_at, wt.id, wt.name, wt.description, wt.color, wt.created_at`

type Repo struct {
	db *pgxpool.Pool
	// days are bucketed in this zone, see GroupByDay
	location *time.Location
}

func NewRepo(db *pgxpool.Pool, location *time.Location) *Repo {
	if location == nil {
		location = time.UTC
	}
	return &Repo{
		db:       db,
		location: location,
	}
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", workout.UserID))

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workouts
				(user_id, workout_type_id, duration_min, calories, performed_at, notes)
				VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at;`,
		workout.UserID, workout.WorkoutTypeID, workout.DurationMin, workout.Calories, workout.PerformedAt, workout.Notes,
	).Scan(&workout.ID, &workout.CreatedAt, &workout.UpdatedAt)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrWorkoutTypeNotFound
		}
		return nil, fmt.Errorf("insert workout: %w", err)
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))
	return &workout, nil
}

// Get returns the workout only if it belongs to the given user.
func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workouts w
			JOIN workout_types wt ON wt.id = w.workout_type_id
			WHERE w.id = $1 AND w.user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts, err := rows2workouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

func (r *Repo) Update(ctx context.Context, userID, id int, patch Patch) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	if patch.Empty() {
		return nil, errors.New("nothing to update")
	}

	q := sqlf.PostgreSQL.Update("workouts").
		SetExpr("updated_at", "now()").
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Returning("id")
	defer q.Close()

	if patch.WorkoutTypeID != nil {
		q.Set("workout_type_id", *patch.WorkoutTypeID)
	}
	if patch.DurationMin != nil {
		q.Set("duration_min", *patch.DurationMin)
	}
	if patch.ClearCalories {
		q.Set("calories", nil)
	} else if patch.Calories != nil {
		q.Set("calories", *patch.Calories)
	}
	if patch.PerformedAt != nil {
		q.Set("performed_at", *patch.PerformedAt)
	}
	if patch.ClearNotes {
		q.Set("notes", nil)
	} else if patch.Notes != nil {
		q.Set("notes", *patch.Notes)
	}

	var updatedID int
	if err := r.db.QueryRow(ctx, q.String(), q.Args()...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrWorkoutTypeNotFound
		}
		return nil, fmt.Errorf("update workout: %w", err)
	}

	return r.Get(ctx, userID, updatedID)
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// List returns one page of the user's workouts and the total number of matching workouts.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Workout, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", params.Page))
	span.SetAttributes(attribute.Int("limit", params.Limit))
	span.SetAttributes(attribute.Int("workout_type_id", params.WorkoutTypeID))

	if params.Page < 1 {
		return nil, -1, errors.New("page must be greater than 0")
	}
	if params.Limit < 1 {
		return nil, -1, errors.New("limit must be greater than 0")
	}

	sortColumn, ok := SortColumns[params.SortBy]
	if !ok {
		sortColumn = SortColumns["performedAt"]
	}
	sortOrder := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	countQ := filterWorkouts(sqlf.PostgreSQL.From("workouts w").Select("COUNT(*)"), params)
	defer countQ.Close()
	if err := r.db.QueryRow(ctx, countQ.String(), countQ.Args()...).Scan(&total); err != nil {
		return nil, -1, fmt.Errorf("count workouts: %w", err)
	}
	span.SetAttributes(attribute.Int("count_all", total))

	q := filterWorkouts(
		sqlf.PostgreSQL.From("workouts w").
			Join("workout_types wt", "wt.id = w.workout_type_id").
			Select(workoutColumns),
		params,
	).
		OrderBy(fmt.Sprintf("%s %s NULLS LAST", sortColumn, sortOrder), "w.id DESC").
		Limit(params.Limit).
		Offset(pkg.Offset(params.Page, params.Limit))
	defer q.Close()

	rows, err := r.db.Query(ctx, q.String(), q.Args()...)
	if err != nil {
		return nil, -1, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	workouts, err := rows2workouts(rows)
	if err != nil {
		return nil, -1, fmt.Errorf("rows2workouts: %w", err)
	}
	return workouts, total, nil
}

func filterWorkouts(q *sqlf.Stmt, params ListParams) *sqlf.Stmt {
	q.Where("w.user_id = ?", params.UserID)
	if params.WorkoutTypeID > 0 {
		q.Where("w.workout_type_id = ?", params.WorkoutTypeID)
	}
	if params.StartDate != nil {
		q.Where("w.performed_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		q.Where("w.performed_at <= ?", *params.EndDate)
	}
	return q
}

func (r *Repo) Totals(ctx context.Context, userID int) (_ Totals, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.totals")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var totals Totals
	err = r.db.QueryRow(
		ctx,
		`SELECT COUNT(*), COALESCE(SUM(duration_min), 0), COALESCE(SUM(calories), 0)
			FROM workouts WHERE user_id = $1;`,
		userID,
	).Scan(&totals.TotalWorkouts, &totals.TotalDuration, &totals.TotalCalories)
	if err != nil {
		return Totals{}, err
	}
	return totals, nil
}

// CountAndSum aggregates the user's workouts performed in [rng.From, rng.To).
// Sums stay nil when no workout matched.
func (r *Repo) CountAndSum(ctx context.Context, userID int, rng Range) (_ Aggregate, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.countAndSum")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from", rng.From.String()))
	span.SetAttributes(attribute.String("to", rng.To.String()))

	var agg Aggregate
	err = r.db.QueryRow(
		ctx,
		`SELECT COUNT(*), SUM(duration_min), SUM(calories)
			FROM workouts
			WHERE user_id = $1 AND performed_at >= $2 AND performed_at < $3;`,
		userID, rng.From, rng.To,
	).Scan(&agg.Count, &agg.SumDuration, &agg.SumCalories)
	if err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

// GroupByDay aggregates the user's workouts in [rng.From, rng.To) per calendar day.
// Only days with at least one workout are returned, ordered by day.
func (r *Repo) GroupByDay(ctx context.Context, userID int, rng Range) (_ []DayAggregate, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.groupByDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("tz", r.location.String()))

	rows, err := r.db.Query(
		ctx,
		`SELECT
				to_char(DATE(performed_at AT TIME ZONE $2), 'YYYY-MM-DD') AS day,
				COUNT(*), SUM(duration_min), SUM(calories)
			FROM workouts
			WHERE user_id = $1 AND performed_at >= $3 AND performed_at < $4
			GROUP BY day
			ORDER BY day;`,
		userID, r.location.String(), rng.From, rng.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]DayAggregate, 0)
	for rows.Next() {
		var d DayAggregate
		if err := rows.Scan(&d.Day, &d.Count, &d.SumDuration, &d.SumCalories); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return days, nil
}

// ListRecent returns the user's latest workouts with the workout type joined in.
func (r *Repo) ListRecent(ctx context.Context, userID int, limit int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listRecent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workouts w
			JOIN workout_types wt ON wt.id = w.workout_type_id
			WHERE w.user_id = $1
			ORDER BY w.performed_at DESC, w.id DESC
			LIMIT $2;`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2workouts(rows)
}

func rows2workouts(rows pgx.Rows) ([]Workout, error) {
	workouts := make([]Workout, 0)
	for rows.Next() {
		var w Workout
		var wt WorkoutType
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.WorkoutTypeID, &w.DurationMin, &w.Calories, &w.PerformedAt, &w.Notes,
			&w.CreatedAt, &w.UpdatedAt,
			&wt.ID, &wt.Name, &wt.Description, &wt.Color, &wt.CreatedAt,
		); err != nil {
			return nil, err
		}
		w.WorkoutType = &wt
		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}
