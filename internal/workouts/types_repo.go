package workouts

import (
	"context"
	"errors"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

func (r *Repo) ListTypes(ctx context.Context) (_ []WorkoutType, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listTypes")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, description, color, created_at FROM workout_types ORDER BY name ASC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]WorkoutType, 0)
	for rows.Next() {
		var wt WorkoutType
		if err := rows.Scan(&wt.ID, &wt.Name, &wt.Description, &wt.Color, &wt.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return types, nil
}

func (r *Repo) GetType(ctx context.Context, id int) (_ *WorkoutType, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getType")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var wt WorkoutType
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, description, color, created_at FROM workout_types WHERE id = $1;`,
		id,
	).Scan(&wt.ID, &wt.Name, &wt.Description, &wt.Color, &wt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutTypeNotFound
		}
		return nil, err
	}

	return &wt, nil
}

// UpsertType inserts the type or, if one with the same name exists, updates its description and color.
func (r *Repo) UpsertType(ctx context.Context, wt WorkoutType) (_ *WorkoutType, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.upsertType")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("name", wt.Name))

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workout_types (name, description, color)
				VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, color = EXCLUDED.color
			RETURNING id, created_at;`,
		wt.Name, wt.Description, wt.Color,
	).Scan(&wt.ID, &wt.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &wt, nil
}
