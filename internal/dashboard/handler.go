package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const maxRecentLimit = 50

//go:generate mockgen -source=$GOFILE -destination=aggregator_mocks_test.go -package=dashboard_test

type aggregator interface {
	Stats(ctx context.Context, userID int) (Stats, error)
	Trend(ctx context.Context, userID int, days int) ([]TrendPoint, error)
	Goals(ctx context.Context, userID int) (GoalProgress, error)
	Recent(ctx context.Context, userID int, limit int) ([]RecentWorkout, error)
	MaxTrendDays() int
	DefaultTrendDays() int
	RecentLimit() int
}

// Overview is everything the dashboard page shows, in one response.
type Overview struct {
	Stats          Stats           `json:"stats"`
	Trend          []TrendPoint    `json:"trend"`
	Goals          GoalProgress    `json:"goals"`
	RecentWorkouts []RecentWorkout `json:"recentWorkouts"`
}

type Handler struct {
	aggregator aggregator
}

func NewHandler(aggregator aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard", handler.handleOverview).Methods("GET", "OPTIONS").Name("dashboard")
	router.HandleFunc("/dashboard/stats", handler.handleStats).Methods("GET", "OPTIONS").Name("dashboard-stats")
	router.HandleFunc("/dashboard/trends", handler.handleTrends).Methods("GET", "OPTIONS").Name("dashboard-trends")
	router.HandleFunc("/dashboard/goals", handler.handleGoals).Methods("GET", "OPTIONS").Name("dashboard-goals")
	router.HandleFunc("/dashboard/recent", handler.handleRecent).Methods("GET", "OPTIONS").Name("dashboard-recent")
}

func (handler *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.overview")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	// stats and goals ask for the same windows, the memo makes them share the queries
	ctx = WithMemo(ctx, NewMemo())

	var overview Overview
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		overview.Stats, err = handler.aggregator.Stats(gCtx, userID)
		return err
	})
	g.Go(func() (err error) {
		overview.Trend, err = handler.aggregator.Trend(gCtx, userID, handler.aggregator.DefaultTrendDays())
		return err
	})
	g.Go(func() (err error) {
		overview.Goals, err = handler.aggregator.Goals(gCtx, userID)
		return err
	})
	g.Go(func() (err error) {
		overview.RecentWorkouts, err = handler.aggregator.Recent(gCtx, userID, handler.aggregator.RecentLimit())
		return err
	})
	if err := g.Wait(); err != nil {
		writeAggregationError(w, userID, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, overview)
}

func (handler *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.stats")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	stats, err := handler.aggregator.Stats(ctx, userID)
	if err != nil {
		writeAggregationError(w, userID, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, stats)
}

func (handler *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.trends")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	days := handler.aggregator.DefaultTrendDays()
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		var err error
		days, err = strconv.Atoi(daysParam)
		if err != nil || days < 1 || days > handler.aggregator.MaxTrendDays() {
			pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid days parameter",
				fmt.Sprintf("days must be a number between 1 and %d", handler.aggregator.MaxTrendDays()), nil)
			return
		}
	}
	span.SetAttributes(attribute.Int("days", days))

	trend, err := handler.aggregator.Trend(ctx, userID, days)
	if err != nil {
		writeAggregationError(w, userID, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, trend)
}

func (handler *Handler) handleGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.goals")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	goals, err := handler.aggregator.Goals(WithMemo(ctx, NewMemo()), userID)
	if err != nil {
		writeAggregationError(w, userID, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, goals)
}

func (handler *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.recent")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	limit := handler.aggregator.RecentLimit()
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		var err error
		limit, err = strconv.Atoi(limitParam)
		if err != nil || limit < 1 || limit > maxRecentLimit {
			pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid limit parameter",
				fmt.Sprintf("limit must be a number between 1 and %d", maxRecentLimit), nil)
			return
		}
	}

	recent, err := handler.aggregator.Recent(ctx, userID, limit)
	if err != nil {
		writeAggregationError(w, userID, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, recent)
}

func writeUnauthorized(w http.ResponseWriter) {
	pkg.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required", nil)
}

func writeAggregationError(w http.ResponseWriter, userID int, err error) {
	if errors.Is(err, context.Canceled) {
		log.Debugf("dashboard request for user %d canceled", userID)
		return
	}
	log.Errorf("dashboard for user %d: %s", userID, err)
	if errors.Is(err, ErrStoreUnavailable) {
		pkg.WriteJSONError(w, http.StatusInternalServerError,
			"Database Error", "An error occurred while processing your request", nil)
		return
	}
	pkg.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to fetch dashboard data", nil)
}
