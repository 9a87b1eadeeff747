package programs

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const defaultStartDay = "monday"

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=programs_test

type programsRepo interface {
	Add(ctx context.Context, p Program) (*Program, error)
	Get(ctx context.Context, userID, id int) (*Program, error)
	List(ctx context.Context, userID int) ([]Program, error)
	Update(ctx context.Context, p *Program) error
	Delete(ctx context.Context, userID, id int) error
	Duplicate(ctx context.Context, userID, id int) (*Program, error)
	Start(ctx context.Context, userID, id int, startDate time.Time, startDay string) (*StartResult, error)
	ListWorkouts(ctx context.Context, userID, programID int) ([]ProgramWorkout, error)
	AddWorkout(ctx context.Context, userID int, pw ProgramWorkout) (*ProgramWorkout, error)
	GetWorkout(ctx context.Context, userID, id int) (*ProgramWorkout, error)
	UpdateWorkout(ctx context.Context, userID int, pw *ProgramWorkout) error
	DeleteWorkout(ctx context.Context, userID, id int) error
}

type Handler struct {
	repo programsRepo
	now  func() time.Time
}

func NewHandler(repo programsRepo) *Handler {
	return &Handler{
		repo: repo,
		now:  time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/programs").Subrouter()
	r.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-programs")
	r.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-program")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-program")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-program")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-program")
	r.HandleFunc("/{id:[0-9]+}/duplicate", handler.HandleDuplicate).Methods("POST", "OPTIONS").Name("duplicate-program")
	r.HandleFunc("/{id:[0-9]+}/start", handler.HandleStart).Methods("POST", "OPTIONS").Name("start-program")
	r.HandleFunc("/{id:[0-9]+}/workouts", handler.HandleListWorkouts).Methods("GET", "OPTIONS").Name("list-program-workouts")
	r.HandleFunc("/{id:[0-9]+}/workouts", handler.HandleAddWorkout).Methods("POST", "OPTIONS").Name("add-program-workout")
	r.HandleFunc("/workouts/{wid:[0-9]+}", handler.HandleGetWorkout).Methods("GET", "OPTIONS").Name("get-program-workout")
	r.HandleFunc("/workouts/{wid:[0-9]+}", handler.HandleUpdateWorkout).Methods("PUT", "OPTIONS").Name("update-program-workout")
	r.HandleFunc("/workouts/{wid:[0-9]+}", handler.HandleDeleteWorkout).Methods("DELETE", "OPTIONS").Name("delete-program-workout")
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrProgramNotFound), errors.Is(err, ErrProgramWorkoutNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNoProgramWorkouts), errors.Is(err, ErrNoExercises), errors.Is(err, ErrInvalidDay):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func userAndID(w http.ResponseWriter, r *http.Request, idVar string) (int, int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, 0, false
	}
	id, err := pkg.IntVar(r, idVar)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, id, true
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	list, err := handler.repo.List(ctx, userID)
	if err != nil {
		writeError(w, "list programs", err)
		return
	}
	if list == nil {
		list = []Program{}
	}

	pkg.WriteJSON(w, list, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var program Program
	if err := pkg.ReadJSON(r, &program); err != nil {
		log.Debugf("add program, read json: %s", err)
		http.Error(w, "invalid program", http.StatusBadRequest)
		return
	}
	Normalize(&program)
	if program.Name == "" {
		http.Error(w, "error, program name empty", http.StatusBadRequest)
		return
	}

	program.ID = 0
	program.UserID = userID
	program.IsActive = false
	program.StartDate = nil
	program.EndDate = nil

	added, err := handler.repo.Add(ctx, program)
	if err != nil {
		writeError(w, "add program", err)
		return
	}
	span.SetAttributes(attribute.Int("program.id", added.ID))

	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.get")
	defer span.End()

	userID, id, ok := userAndID(w, r, "id")
	if !ok {
		return
	}

	program, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		writeError(w, "get program", err)
		return
	}

	pkg.WriteJSON(w, program, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.update")
	defer span.End()

	userID, id, ok := userAndID(w, r, "id")
	if !ok {
		return
	}

	var program Program
	if err := pkg.ReadJSON(r, &program); err != nil {
		log.Debugf("update program, read json: %s", err)
		http.Error(w, "invalid program", http.StatusBadRequest)
		return
	}
	Normalize(&program)
	if program.Name == "" {
		http.Error(w, "error, program name empty", http.StatusBadRequest)
		return
	}
	program.ID = id
	program.UserID = userID

	if err := handler.repo.Update(ctx, &program); err != nil {
		writeError(w, "update program", err)
		return
	}

	pkg.WriteJSON(w, program, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.delete")
	defer span.End()

	userID, id, ok := userAndID(w, r, "id")
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		writeError(w, "delete program", err)
		return
	}

	log.Debugf("program %d deleted by user %d", id, userID)
	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.duplicate")
	defer span.End()

	userID, id, ok := userAndID(w, r, "id")
	if !ok {
		return
	}

	duplicate, err := handler.repo.Duplicate(ctx, userID, id)
	if err != nil {
		writeError(w, "duplicate program", err)
		return
	}

	pkg.WriteJSON(w, duplicate, http.StatusCreated)
}

type startRequest struct {
	StartDate pkg.Date `json:"start_date"`
	StartDay  string   `json:"start_day"`
}

// HandleStart schedules the program. Without a body it starts today, with
// monday as the first program day.
func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.start")
	defer span.End()

	userID, id, ok := userAndID(w, r, "id")
	if !ok {
		return
	}

	var req startRequest
	if r.ContentLength != 0 {
		if err := pkg.ReadJSON(r, &req); err != nil {
			log.Debugf("start program, read json: %s", err)
			http.Error(w, "invalid start request", http.StatusBadRequest)
			return
		}
	}
	if req.StartDate.IsZero() {
		req.StartDate = pkg.NewDate(handler.now())
	}
	req.StartDay = strings.ToLower(strings.TrimSpace(req.StartDay))
	if req.StartDay == "" {
		req.StartDay = defaultStartDay
	}
	if DayIndex(req.StartDay) < 0 {
		http.Error(w, "error, invalid start_day", http.StatusBadRequest)
		return
	}

	result, err := handler.repo.Start(ctx, userID, id, req.StartDate.Time, req.StartDay)
	if err != nil {
		writeError(w, "start program", err)
		return
	}
	span.SetAttributes(attribute.Int("workouts.scheduled", len(result.Workouts)))

	log.Debugf("program %d started by user %d, %d workouts scheduled", id, userID, len(result.Workouts))
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (handler *Handler) HandleListWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.list_workouts")
	defer span.End()

	userID, id, ok := userAndID(w, r, "id")
	if !ok {
		return
	}

	list, err := handler.repo.ListWorkouts(ctx, userID, id)
	if err != nil {
		writeError(w, "list program workouts", err)
		return
	}
	if list == nil {
		list = []ProgramWorkout{}
	}

	pkg.WriteJSON(w, list, http.StatusOK)
}

func (handler *Handler) HandleAddWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.add_workout")
	defer span.End()

	userID, id, ok := userAndID(w, r, "id")
	if !ok {
		return
	}

	var pw ProgramWorkout
	if err := pkg.ReadJSON(r, &pw); err != nil {
		log.Debugf("add program workout, read json: %s", err)
		http.Error(w, "invalid program workout", http.StatusBadRequest)
		return
	}
	if pw.WeekNumber == 0 {
		pw.WeekNumber = 1
	}
	if err := ValidateWorkout(&pw); err != nil {
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
		return
	}
	pw.ID = 0
	pw.ProgramID = id

	added, err := handler.repo.AddWorkout(ctx, userID, pw)
	if err != nil {
		writeError(w, "add program workout", err)
		return
	}

	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleGetWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.get_workout")
	defer span.End()

	userID, id, ok := userAndID(w, r, "wid")
	if !ok {
		return
	}

	pw, err := handler.repo.GetWorkout(ctx, userID, id)
	if err != nil {
		writeError(w, "get program workout", err)
		return
	}

	pkg.WriteJSON(w, pw, http.StatusOK)
}

func (handler *Handler) HandleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.update_workout")
	defer span.End()

	userID, id, ok := userAndID(w, r, "wid")
	if !ok {
		return
	}

	var pw ProgramWorkout
	if err := pkg.ReadJSON(r, &pw); err != nil {
		log.Debugf("update program workout, read json: %s", err)
		http.Error(w, "invalid program workout", http.StatusBadRequest)
		return
	}
	if err := ValidateWorkout(&pw); err != nil {
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
		return
	}
	pw.ID = id

	if err := handler.repo.UpdateWorkout(ctx, userID, &pw); err != nil {
		writeError(w, "update program workout", err)
		return
	}

	pkg.WriteJSON(w, pw, http.StatusOK)
}

func (handler *Handler) HandleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.delete_workout")
	defer span.End()

	userID, id, ok := userAndID(w, r, "wid")
	if !ok {
		return
	}

	if err := handler.repo.DeleteWorkout(ctx, userID, id); err != nil {
		writeError(w, "delete program workout", err)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}
