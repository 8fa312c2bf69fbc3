package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/events"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=workouts_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Get(ctx context.Context, userID, id int) (*Workout, error)
	Update(ctx context.Context, userID, id int, patch Patch) (*Workout, error)
	Delete(ctx context.Context, userID, id int) error
	List(ctx context.Context, params ListParams) (_ []Workout, total int, err error)
}

type workoutTypes interface {
	All(ctx context.Context) ([]WorkoutType, error)
	Get(ctx context.Context, id int) (*WorkoutType, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ListResponse struct {
	Workouts   []Workout      `json:"workouts"`
	Pagination pkg.Pagination `json:"pagination"`
}

type Handler struct {
	repo           workoutsRepo
	types          workoutTypes
	publisher      eventPublisher
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(
	repo workoutsRepo,
	types workoutTypes,
	publisher eventPublisher,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		types:          types,
		publisher:      publisher,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// SetupRoutes registers the workout routes. Writes go through a subrouter, so the
// given middlewares (e.g. the per-user rate limiter) apply to them only.
func (handler *Handler) SetupRoutes(router *mux.Router, writeMiddlewares ...mux.MiddlewareFunc) {
	router.HandleFunc("/workout-types", handler.handleListTypes).Methods("GET", "OPTIONS").Name("workout-types")
	router.HandleFunc("/workouts", handler.handleList).Methods("GET", "OPTIONS").Name("list-workouts")
	router.HandleFunc("/workouts/{id}", handler.handleGet).Methods("GET", "OPTIONS").Name("get-workout")

	writeRouter := router.Methods("POST", "PATCH", "DELETE").Subrouter()
	writeRouter.HandleFunc("/workouts", handler.handleCreate).Methods("POST").Name("create-workout")
	writeRouter.HandleFunc("/workouts/{id}", handler.handleUpdate).Methods("PATCH").Name("update-workout")
	writeRouter.HandleFunc("/workouts/{id}", handler.handleDelete).Methods("DELETE").Name("delete-workout")
	writeRouter.Use(writeMiddlewares...)
}

func (handler *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.types")
	defer span.End()

	types, err := handler.types.All(ctx)
	if err != nil {
		log.Errorf("list workout types: %s", err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to fetch workout types", nil)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, types)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	params, err := ParseListParams(userID, r.URL.Query())
	if err != nil {
		writeValidationError(w, "Invalid query parameters", err)
		return
	}
	span.SetAttributes(attribute.Int("page", params.Page), attribute.Int("limit", params.Limit))

	workouts, total, err := handler.repo.List(ctx, params)
	if err != nil {
		log.Errorf("list workouts for user %d: %s", userID, err)
		writeDatabaseError(w)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, ListResponse{
		Workouts:   workouts,
		Pagination: pkg.CalculatePagination(params.Page, params.Limit, total),
	})
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.create")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req CreateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("create workout, unmarshal json: %s", err)
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON", "Request body must be valid JSON", nil)
		return
	}
	if err := pkg.ValidateStruct(req); err != nil {
		writeValidationError(w, "Invalid request body", err)
		return
	}

	workoutType, err := handler.types.Get(ctx, req.WorkoutTypeID)
	if err != nil {
		handler.writeTypeLookupError(w, req.WorkoutTypeID, err)
		return
	}

	added, err := handler.repo.Add(ctx, req.Workout(userID))
	if err != nil {
		if errors.Is(err, ErrWorkoutTypeNotFound) {
			handler.writeTypeLookupError(w, req.WorkoutTypeID, err)
			return
		}
		log.Errorf("add workout for user %d: %s", userID, err)
		writeDatabaseError(w)
		return
	}
	added.WorkoutType = workoutType
	span.SetAttributes(attribute.Int("workout.id", added.ID))

	handler.metricsManager.CounterWorkoutsCreated.Inc()
	handler.publish(ctx, events.WorkoutCreated, userID, added.ID, added)

	log.Debugf("workout %d added for user %d", added.ID, userID)
	pkg.WriteJSON(w, http.StatusCreated, added)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}
	id, ok := workoutIDFromPath(w, r)
	if !ok {
		return
	}

	workout, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		handler.writeWorkoutError(w, id, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, workout)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}
	id, ok := workoutIDFromPath(w, r)
	if !ok {
		return
	}

	var req UpdateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update workout, unmarshal json: %s", err)
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON", "Request body must be valid JSON", nil)
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, "Invalid request body", err)
		return
	}

	if req.WorkoutTypeID != nil {
		if _, err := handler.types.Get(ctx, *req.WorkoutTypeID); err != nil {
			handler.writeTypeLookupError(w, *req.WorkoutTypeID, err)
			return
		}
	}

	updated, err := handler.repo.Update(ctx, userID, id, req.Patch())
	if err != nil {
		handler.writeWorkoutError(w, id, err)
		return
	}

	handler.publish(ctx, events.WorkoutUpdated, userID, updated.ID, updated)
	pkg.WriteJSON(w, http.StatusOK, updated)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}
	id, ok := workoutIDFromPath(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		handler.writeWorkoutError(w, id, err)
		return
	}

	handler.publish(ctx, events.WorkoutDeleted, userID, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// publish is best effort, a failed event never fails the request
func (handler *Handler) publish(ctx context.Context, eventType events.Type, userID, workoutID int, workout *Workout) {
	var payload any
	if workout != nil {
		payload = workout
	}
	event, err := events.NewWorkoutEvent(eventType, userID, workoutID, payload, handler.now())
	if err != nil {
		log.Errorf("build %s event: %s", eventType, err)
		return
	}
	if err := handler.publisher.Publish(ctx, event); err != nil {
		log.Errorf("publish %s event for workout %d: %s", eventType, workoutID, err)
	}
}

func workoutIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		pkg.WriteJSONError(w, http.StatusUnprocessableEntity,
			"Invalid Route Parameters", "Route parameters are invalid",
			[]pkg.FieldError{{Field: "id", Message: "ID must be a positive integer"}},
		)
		return 0, false
	}
	return id, true
}

func (handler *Handler) writeWorkoutError(w http.ResponseWriter, id int, err error) {
	switch {
	case errors.Is(err, ErrWorkoutNotFound):
		pkg.WriteJSONError(w, http.StatusNotFound, "Not Found", fmt.Sprintf("Workout with ID %d not found", id), nil)
	case errors.Is(err, ErrWorkoutTypeNotFound):
		pkg.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "Referenced resource does not exist", nil)
	default:
		log.Errorf("workout %d: %s", id, err)
		writeDatabaseError(w)
	}
}

func (handler *Handler) writeTypeLookupError(w http.ResponseWriter, typeID int, err error) {
	if errors.Is(err, ErrWorkoutTypeNotFound) {
		pkg.WriteJSONError(w, http.StatusBadRequest,
			"Bad Request", fmt.Sprintf("Workout type with ID %d does not exist", typeID), nil)
		return
	}
	log.Errorf("get workout type %d: %s", typeID, err)
	writeDatabaseError(w)
}

func writeUnauthorized(w http.ResponseWriter) {
	pkg.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required", nil)
}

func writeDatabaseError(w http.ResponseWriter) {
	pkg.WriteJSONError(w, http.StatusInternalServerError,
		"Database Error", "An error occurred while processing your request", nil)
}

func writeValidationError(w http.ResponseWriter, message string, err error) {
	var vErr *pkg.ValidationError
	if errors.As(err, &vErr) {
		pkg.WriteJSONError(w, http.StatusUnprocessableEntity, "Validation Error", message, vErr.Fields)
		return
	}
	log.Errorf("validate request: %s", err)
	pkg.WriteJSONError(w, http.StatusBadRequest, "Bad Request", message, nil)
}
