package session

import (
	"errors"
	"net/http"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/workouts"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/sessions").Subrouter()
	r.HandleFunc("/unfinished", handler.HandleListUnfinished).Methods("GET", "OPTIONS").Name("list-unfinished-sessions")
	r.HandleFunc("/unfinished/{id:[0-9]+}/resume", handler.HandleResume).Methods("POST", "OPTIONS").Name("resume-session")
	r.HandleFunc("/unfinished/{id:[0-9]+}/complete", handler.HandleCompleteUnfinished).Methods("POST", "OPTIONS").Name("complete-unfinished-session")
	r.HandleFunc("/unfinished/{id:[0-9]+}", handler.HandleDiscard).Methods("DELETE", "OPTIONS").Name("discard-session")
	r.HandleFunc("/{workoutId:[0-9]+}/start", handler.HandleStart).Methods("POST", "OPTIONS").Name("start-session")
	r.HandleFunc("/{workoutId:[0-9]+}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-session")
	r.HandleFunc("/{workoutId:[0-9]+}/action", handler.HandleAction).Methods("POST", "OPTIONS").Name("session-action")
	r.HandleFunc("/{workoutId:[0-9]+}/exit", handler.HandleExit).Methods("POST", "OPTIONS").Name("exit-session")
	r.HandleFunc("/{workoutId:[0-9]+}/complete", handler.HandleComplete).Methods("POST", "OPTIONS").Name("complete-session")
}

// writeError maps manager and state machine errors to status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNoLiveSession),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, workouts.ErrWorkoutNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrInvalidSection),
		errors.Is(err, ErrInvalidExercise),
		errors.Is(err, ErrInvalidSet),
		errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrInvalidFeedback),
		errors.Is(err, ErrNoExercise):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) userAndWorkout(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, 0, false
	}
	workoutID, err := pkg.IntVar(r, "workoutId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, workoutID, true
}

func (handler *Handler) userAndSession(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, 0, false
	}
	sessionID, err := pkg.IntVar(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, sessionID, true
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.start")
	defer span.End()

	userID, workoutID, ok := handler.userAndWorkout(w, r)
	if !ok {
		return
	}

	s, err := handler.manager.Start(ctx, userID, workoutID)
	if err != nil {
		writeError(w, "start session", err)
		return
	}

	pkg.WriteJSON(w, s.View(), http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.get")
	defer span.End()

	userID, workoutID, ok := handler.userAndWorkout(w, r)
	if !ok {
		return
	}

	s, err := handler.manager.Get(userID, workoutID)
	if err != nil {
		writeError(w, "get session", err)
		return
	}

	pkg.WriteJSON(w, s.View(), http.StatusOK)
}

func (handler *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.action")
	defer span.End()

	userID, workoutID, ok := handler.userAndWorkout(w, r)
	if !ok {
		return
	}

	var action Action
	if err := pkg.ReadJSON(r, &action); err != nil {
		log.Debugf("session action, read json: %s", err)
		http.Error(w, "invalid action", http.StatusBadRequest)
		return
	}

	view, err := handler.manager.Apply(ctx, userID, workoutID, action)
	if err != nil {
		writeError(w, "session action", err)
		return
	}

	pkg.WriteJSON(w, view, http.StatusOK)
}

func (handler *Handler) HandleExit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.exit")
	defer span.End()

	userID, workoutID, ok := handler.userAndWorkout(w, r)
	if !ok {
		return
	}

	if err := handler.manager.Exit(ctx, userID, workoutID); err != nil {
		writeError(w, "exit session", err)
		return
	}

	pkg.WriteTextResponseOK(w, "saved")
}

func (handler *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.complete")
	defer span.End()

	userID, workoutID, ok := handler.userAndWorkout(w, r)
	if !ok {
		return
	}

	result, err := handler.manager.Complete(ctx, userID, workoutID)
	if err != nil {
		writeError(w, "complete session", err)
		return
	}

	pkg.WriteJSON(w, result, http.StatusOK)
}

func (handler *Handler) HandleListUnfinished(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.list_unfinished")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessions, err := handler.manager.ListUnfinished(ctx, userID)
	if err != nil {
		writeError(w, "list unfinished sessions", err)
		return
	}

	pkg.WriteJSON(w, sessions, http.StatusOK)
}

func (handler *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.resume")
	defer span.End()

	userID, sessionID, ok := handler.userAndSession(w, r)
	if !ok {
		return
	}

	s, err := handler.manager.Resume(ctx, userID, sessionID)
	if err != nil {
		writeError(w, "resume session", err)
		return
	}

	pkg.WriteJSON(w, s.View(), http.StatusOK)
}

type completeUnfinishedRequest struct {
	CompletedDate   pkg.Date `json:"completed_date"`
	DurationMinutes int      `json:"duration_minutes"`
}

func (handler *Handler) HandleCompleteUnfinished(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.complete_unfinished")
	defer span.End()

	userID, sessionID, ok := handler.userAndSession(w, r)
	if !ok {
		return
	}

	var req completeUnfinishedRequest
	if err := pkg.ReadJSON(r, &req); err != nil {
		log.Debugf("complete unfinished, read json: %s", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.CompletedDate.IsZero() {
		http.Error(w, "error, completed_date missing", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes <= 0 {
		http.Error(w, "error, duration_minutes must be positive", http.StatusBadRequest)
		return
	}

	err := handler.manager.CompleteUnfinished(ctx, userID, sessionID, req.CompletedDate.Time, req.DurationMinutes)
	if err != nil {
		writeError(w, "complete unfinished session", err)
		return
	}

	pkg.WriteTextResponseOK(w, "completed")
}

func (handler *Handler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.discard")
	defer span.End()

	userID, sessionID, ok := handler.userAndSession(w, r)
	if !ok {
		return
	}

	if err := handler.manager.Discard(ctx, userID, sessionID); err != nil {
		writeError(w, "discard session", err)
		return
	}

	pkg.WriteTextResponseOK(w, "discarded")
}
