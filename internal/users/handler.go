package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/workouts"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=users_mocks_test.go -package=users_test

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type sessionService interface {
	Login(ctx context.Context, userID int, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type totalsSource interface {
	Totals(ctx context.Context, userID int) (workouts.Totals, error)
}

type Handler struct {
	repo     usersRepo
	sessions sessionService
	totals   totalsSource
}

func NewHandler(repo usersRepo, sessions sessionService, totals totalsSource) *Handler {
	return &Handler{
		repo:     repo,
		sessions: sessions,
		totals:   totals,
	}
}

// SetupRoutes registers the account routes. The given middlewares (e.g. the login
// rate limiter) apply only to the /a subrouter.
func (handler *Handler) SetupRoutes(router *mux.Router, loginMiddlewares ...mux.MiddlewareFunc) {
	router.HandleFunc("/me", handler.handleMe).Methods("GET", "OPTIONS").Name("me")

	loginSubrouter := router.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/register", handler.handleRegister).
		Methods("POST", "OPTIONS").Name("register")
	loginSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")
	loginSubrouter.Use(loginMiddlewares...)
}

func (handler *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("register, unmarshal json: %s", err)
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON", "Request body must be valid JSON", nil)
		return
	}
	if err := pkg.ValidateStruct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	passwordHash, err := pkg.HashPassword(req.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to register", nil)
		return
	}

	user, err := handler.repo.Add(ctx, User{
		Email:        req.Email,
		Name:         req.Name,
		Picture:      req.Picture,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			pkg.WriteJSONError(w, http.StatusConflict, "Conflict", "Email is already registered", nil)
			return
		}
		log.Errorf("register, add user: %s", err)
		writeDatabaseError(w)
		return
	}
	span.SetAttributes(attribute.Int("user.id", user.ID))

	handler.startSession(ctx, w, user, http.StatusCreated)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("login, unmarshal json: %s", err)
		pkg.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON", "Request body must be valid JSON", nil)
		return
	}
	if err := pkg.ValidateStruct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := handler.repo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Errorf("login, get user: %s", err)
		writeDatabaseError(w)
		return
	}
	// accounts created from an external profile have no password
	if user == nil || user.PasswordHash == "" || !pkg.CheckPasswordHash(req.Password, user.PasswordHash) {
		log.Tracef("failed login attempt for: %s", req.Email)
		pkg.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", ErrWrongCredentials.Error(), nil)
		return
	}
	span.SetAttributes(attribute.Int("user.id", user.ID))

	handler.startSession(ctx, w, user, http.StatusOK)
}

func (handler *Handler) startSession(ctx context.Context, w http.ResponseWriter, user *User, status int) {
	token, err := handler.sessions.Login(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("login failed, create session for user %d: %s", user.ID, err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create session", nil)
		return
	}

	log.Tracef("new session for user %d", user.ID)
	pkg.WriteJSON(w, status, LoginResponse{
		Token: token,
		User:  user,
	})
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	token := auth.TokenFromRequest(r)
	if token == "" {
		writeUnauthorized(w)
		return
	}

	loggedOut, err := handler.sessions.Logout(ctx, token)
	if err != nil {
		log.Errorf("logout: %s", err)
		writeUnauthorized(w)
		return
	}
	if !loggedOut {
		writeUnauthorized(w)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.me")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	user, err := handler.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, http.StatusNotFound, "Not Found", "User not found", nil)
			return
		}
		log.Errorf("get user %d: %s", userID, err)
		writeDatabaseError(w)
		return
	}

	totals, err := handler.totals.Totals(ctx, userID)
	if err != nil {
		log.Errorf("get totals for user %d: %s", userID, err)
		writeDatabaseError(w)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, MeResponse{
		User:  user,
		Stats: totals,
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	pkg.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required", nil)
}

func writeDatabaseError(w http.ResponseWriter) {
	pkg.WriteJSONError(w, http.StatusInternalServerError,
		"Database Error", "An error occurred while processing your request", nil)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var vErr *pkg.ValidationError
	if errors.As(err, &vErr) {
		pkg.WriteJSONError(w, http.StatusUnprocessableEntity, "Validation Error", "Invalid request body", vErr.Fields)
		return
	}
	pkg.WriteJSONError(w, http.StatusUnprocessableEntity, "Validation Error", "Invalid request body", nil)
}
