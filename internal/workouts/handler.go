package workouts

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Add(ctx context.Context, w Workout) (*Workout, error)
	Get(ctx context.Context, userID, id int) (*Workout, error)
	List(ctx context.Context, userID int, params ListParams) ([]Workout, error)
	Update(ctx context.Context, w *Workout) error
	Delete(ctx context.Context, userID, id int) error
	Complete(ctx context.Context, userID, id int, completedDate time.Time, durationMinutes int, sections []Section) error
	LastPerformed(ctx context.Context, userID int, exerciseIDs []int) (map[int][]Performance, error)
	WeeklyStats(ctx context.Context, userID int, now time.Time) (*WeeklyStats, error)
}

type Handler struct {
	repo workoutsRepo
}

func NewHandler(repo workoutsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/workouts").Subrouter()
	r.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-workout")
	r.HandleFunc("/today", handler.HandleToday).Methods("GET", "OPTIONS").Name("today-workouts")
	r.HandleFunc("/stats/weekly", handler.HandleWeeklyStats).Methods("GET", "OPTIONS").Name("weekly-stats")
	r.HandleFunc("/last-performed", handler.HandleLastPerformed).Methods("GET", "OPTIONS").Name("last-performed")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")
	r.HandleFunc("/{id:[0-9]+}/complete", handler.HandleComplete).Methods("POST", "OPTIONS").Name("complete-workout")
}

func dateQuery(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := pkg.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func intPtrQuery(r *http.Request, name string) (*int, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	v, err := pkg.IntQuery(r, name, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func listParamsFromRequest(r *http.Request) (ListParams, error) {
	var params ListParams
	var err error
	if params.ScheduledDate, err = dateQuery(r, "date"); err != nil {
		return params, err
	}
	if params.From, err = dateQuery(r, "from"); err != nil {
		return params, err
	}
	if params.To, err = dateQuery(r, "to"); err != nil {
		return params, err
	}
	if params.IsTemplate, err = pkg.BoolQuery(r, "is_template"); err != nil {
		return params, err
	}
	if params.IsCompleted, err = pkg.BoolQuery(r, "is_completed"); err != nil {
		return params, err
	}
	if params.PlanID, err = intPtrQuery(r, "plan_id"); err != nil {
		return params, err
	}
	if params.ProgramID, err = intPtrQuery(r, "program_id"); err != nil {
		return params, err
	}
	return params, nil
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	params, err := listParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := handler.repo.List(ctx, userID, params)
	if err != nil {
		log.Errorf("list workouts: %s", err)
		http.Error(w, "list workouts failed", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Workout{}
	}

	pkg.WriteJSON(w, list, http.StatusOK)
}

// HandleToday lists the non-template workouts scheduled for today, or for ?date=.
func (handler *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.today")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	day, err := dateQuery(r, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if day == nil {
		today := pkg.Day(time.Now())
		day = &today
	}

	notTemplate := false
	list, err := handler.repo.List(ctx, userID, ListParams{
		ScheduledDate: day,
		IsTemplate:    &notTemplate,
	})
	if err != nil {
		log.Errorf("list today's workouts: %s", err)
		http.Error(w, "list workouts failed", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Workout{}
	}

	pkg.WriteJSON(w, list, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var workout Workout
	if err := pkg.ReadJSON(r, &workout); err != nil {
		log.Debugf("add workout, read json: %s", err)
		http.Error(w, "invalid workout", http.StatusBadRequest)
		return
	}
	workout.Name = strings.TrimSpace(workout.Name)
	if workout.Name == "" {
		http.Error(w, "error, workout name empty", http.StatusBadRequest)
		return
	}

	workout.ID = 0
	workout.UserID = userID
	Normalize(&workout)

	added, err := handler.repo.Add(ctx, workout)
	if err != nil {
		if errors.Is(err, ErrUnknownReference) {
			http.Error(w, "unknown plan_id or program_id", http.StatusBadRequest)
			return
		}
		log.Errorf("add workout: %s", err)
		http.Error(w, "add workout failed", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.Int("workout.id", added.ID))

	log.Debugf("workout %d added for user %d", added.ID, userID)
	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	id, err := pkg.IntVar(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("get workout %d: %s", id, err)
		http.Error(w, "get workout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, workout, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	id, err := pkg.IntVar(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var workout Workout
	if err := pkg.ReadJSON(r, &workout); err != nil {
		log.Debugf("update workout, read json: %s", err)
		http.Error(w, "invalid workout", http.StatusBadRequest)
		return
	}
	workout.Name = strings.TrimSpace(workout.Name)
	if workout.Name == "" {
		http.Error(w, "error, workout name empty", http.StatusBadRequest)
		return
	}

	workout.ID = id
	workout.UserID = userID
	Normalize(&workout)

	if err := handler.repo.Update(ctx, &workout); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrUnknownReference) {
			http.Error(w, "unknown plan_id or program_id", http.StatusBadRequest)
			return
		}
		log.Errorf("update workout %d: %s", id, err)
		http.Error(w, "update workout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, workout, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	id, err := pkg.IntVar(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete workout %d: %s", id, err)
		http.Error(w, "delete workout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

type completeRequest struct {
	CompletedDate   *pkg.Date `json:"completed_date"`
	DurationMinutes int       `json:"duration_minutes"`
	Sections        []Section `json:"sections"`
}

// HandleComplete marks a workout as done without going through a live session.
// When no sections are sent, the stored ones are kept.
func (handler *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.complete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	id, err := pkg.IntVar(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req completeRequest
	if err := pkg.ReadJSON(r, &req); err != nil {
		log.Debugf("complete workout, read json: %s", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes < 0 {
		http.Error(w, "error, negative duration", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("complete workout, get %d: %s", id, err)
		http.Error(w, "complete workout failed", http.StatusInternalServerError)
		return
	}

	completedDate := time.Now()
	if req.CompletedDate != nil && !req.CompletedDate.IsZero() {
		completedDate = req.CompletedDate.Time
	}
	if req.Sections != nil {
		workout.Sections = req.Sections
		Normalize(workout)
	}

	if err := handler.repo.Complete(ctx, userID, id, completedDate, req.DurationMinutes, workout.Sections); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("complete workout %d: %s", id, err)
		http.Error(w, "complete workout failed", http.StatusInternalServerError)
		return
	}

	completed := pkg.NewDate(completedDate)
	workout.IsCompleted = true
	workout.CompletedDate = &completed
	workout.DurationMinutes = req.DurationMinutes
	pkg.WriteJSON(w, workout, http.StatusOK)
}

// HandleLastPerformed takes exercise ids as repeated or comma separated exercise_id params.
func (handler *Handler) HandleLastPerformed(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.last_performed")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var exerciseIDs []int
	for _, raw := range r.URL.Query()["exercise_id"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				http.Error(w, "error, invalid exercise_id", http.StatusBadRequest)
				return
			}
			exerciseIDs = append(exerciseIDs, id)
		}
	}
	if len(exerciseIDs) == 0 {
		http.Error(w, "error, exercise_id missing", http.StatusBadRequest)
		return
	}

	lastPerformed, err := handler.repo.LastPerformed(ctx, userID, exerciseIDs)
	if err != nil {
		log.Errorf("last performed: %s", err)
		http.Error(w, "get last performed failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, lastPerformed, http.StatusOK)
}

func (handler *Handler) HandleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.weekly_stats")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	stats, err := handler.repo.WeeklyStats(ctx, userID, time.Now())
	if err != nil {
		log.Errorf("weekly stats: %s", err)
		http.Error(w, "get weekly stats failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, stats, http.StatusOK)
}
