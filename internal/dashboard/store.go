package dashboard

import (
	"context"
	"fmt"

	"github.com/2beens/fittrack/internal/workouts"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=dashboard_test

// Store is the read side of the workouts storage the aggregations run on.
// Filtering by user is done by the store.
type Store interface {
	CountAndSum(ctx context.Context, userID int, rng workouts.Range) (workouts.Aggregate, error)
	GroupByDay(ctx context.Context, userID int, rng workouts.Range) ([]workouts.DayAggregate, error)
	ListRecent(ctx context.Context, userID int, limit int) ([]workouts.Workout, error)
}

// memoStore serves repeated queries of one request from the request memo.
type memoStore struct {
	store Store
	memo  *Memo
}

func (s *memoStore) CountAndSum(ctx context.Context, userID int, rng workouts.Range) (workouts.Aggregate, error) {
	key := fmt.Sprintf("countAndSum|%d|%d|%d", userID, rng.From.UnixNano(), rng.To.UnixNano())
	v, err := s.memo.do(key, func() (any, error) {
		return s.store.CountAndSum(ctx, userID, rng)
	})
	if err != nil {
		return workouts.Aggregate{}, err
	}
	return v.(workouts.Aggregate), nil
}

func (s *memoStore) GroupByDay(ctx context.Context, userID int, rng workouts.Range) ([]workouts.DayAggregate, error) {
	key := fmt.Sprintf("groupByDay|%d|%d|%d", userID, rng.From.UnixNano(), rng.To.UnixNano())
	v, err := s.memo.do(key, func() (any, error) {
		return s.store.GroupByDay(ctx, userID, rng)
	})
	if err != nil {
		return nil, err
	}
	return v.([]workouts.DayAggregate), nil
}

func (s *memoStore) ListRecent(ctx context.Context, userID int, limit int) ([]workouts.Workout, error) {
	key := fmt.Sprintf("listRecent|%d|%d", userID, limit)
	v, err := s.memo.do(key, func() (any, error) {
		return s.store.ListRecent(ctx, userID, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]workouts.Workout), nil
}
