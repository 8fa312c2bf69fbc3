package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const userColumns = `id, email, name, picture, password_hash, created_at, updated_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user.Email = normalizeEmail(user.Email)
	err = r.db.QueryRow(
		ctx,
		`INSERT INTO users (email, name, picture, password_hash)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at;`,
		user.Email, user.Name, user.Picture, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	return &user, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByEmail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1;`, normalizeEmail(email))
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.Picture, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetOrCreate returns the user with the profile's email, creating it when missing.
// Name and picture of an existing user are refreshed when they changed.
func (r *Repo) GetOrCreate(ctx context.Context, profile Profile) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getOrCreate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	existing, err := r.GetByEmail(ctx, profile.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if existing == nil {
		added, err := r.Add(ctx, User{
			Email:   profile.Email,
			Name:    profile.Name,
			Picture: profile.Picture,
		})
		if errors.Is(err, ErrEmailTaken) {
			// created concurrently
			return r.GetByEmail(ctx, profile.Email)
		}
		return added, err
	}

	if existing.Name == profile.Name && equalPtr(existing.Picture, profile.Picture) {
		return existing, nil
	}

	err = r.db.QueryRow(
		ctx,
		`UPDATE users SET name = $1, picture = $2, updated_at = now()
			WHERE id = $3
			RETURNING updated_at;`,
		profile.Name, profile.Picture, existing.ID,
	).Scan(&existing.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", existing.ID, err)
	}
	existing.Name = profile.Name
	existing.Picture = profile.Picture

	return existing, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
