package plans

import (
	"context"
	"errors"
	"net/http"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/workouts"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=plans_test

type plansRepo interface {
	Add(ctx context.Context, p WorkoutPlan) (*WorkoutPlan, error)
	Get(ctx context.Context, userID, id int) (*WorkoutPlan, error)
	List(ctx context.Context, userID int) ([]WorkoutPlan, error)
	Update(ctx context.Context, p *WorkoutPlan) error
	Delete(ctx context.Context, userID, id int) error
	SaveWorkouts(ctx context.Context, userID, planID int, isTemplate bool, list []workouts.Workout) ([]workouts.Workout, error)
	Activate(ctx context.Context, userID, planID int) error
}

type Handler struct {
	repo plansRepo
}

func NewHandler(repo plansRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/plans").Subrouter()
	r.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-plans")
	r.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-plan")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-plan")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-plan")
	r.HandleFunc("/{id:[0-9]+}/templates", handler.HandleSaveTemplates).Methods("PUT", "OPTIONS").Name("save-plan-templates")
	r.HandleFunc("/{id:[0-9]+}/schedule", handler.HandleSaveSchedule).Methods("PUT", "OPTIONS").Name("save-plan-schedule")
	r.HandleFunc("/{id:[0-9]+}/activate", handler.HandleActivate).Methods("POST", "OPTIONS").Name("activate-plan")
}

func writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrPlanNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	log.Errorf("%s: %s", op, err)
	http.Error(w, op+" failed", http.StatusInternalServerError)
}

func userAndID(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, 0, false
	}
	id, err := pkg.IntVar(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, id, true
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	list, err := handler.repo.List(ctx, userID)
	if err != nil {
		writeError(w, "list plans", err)
		return
	}
	if list == nil {
		list = []WorkoutPlan{}
	}

	pkg.WriteJSON(w, list, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var plan WorkoutPlan
	if err := pkg.ReadJSON(r, &plan); err != nil {
		log.Debugf("add plan, read json: %s", err)
		http.Error(w, "invalid plan", http.StatusBadRequest)
		return
	}
	Normalize(&plan)
	if plan.Name == "" {
		http.Error(w, "error, plan name empty", http.StatusBadRequest)
		return
	}
	plan.ID = 0
	plan.UserID = userID

	added, err := handler.repo.Add(ctx, plan)
	if err != nil {
		writeError(w, "add plan", err)
		return
	}
	span.SetAttributes(attribute.Int("plan.id", added.ID))

	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.get")
	defer span.End()

	userID, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	plan, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		writeError(w, "get plan", err)
		return
	}

	pkg.WriteJSON(w, plan, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.update")
	defer span.End()

	userID, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	var plan WorkoutPlan
	if err := pkg.ReadJSON(r, &plan); err != nil {
		log.Debugf("update plan, read json: %s", err)
		http.Error(w, "invalid plan", http.StatusBadRequest)
		return
	}
	Normalize(&plan)
	if plan.Name == "" {
		http.Error(w, "error, plan name empty", http.StatusBadRequest)
		return
	}
	plan.ID = id
	plan.UserID = userID

	if err := handler.repo.Update(ctx, &plan); err != nil {
		writeError(w, "update plan", err)
		return
	}

	pkg.WriteJSON(w, plan, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.delete")
	defer span.End()

	userID, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		writeError(w, "delete plan", err)
		return
	}

	log.Debugf("plan %d deleted by user %d", id, userID)
	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleSaveTemplates(w http.ResponseWriter, r *http.Request) {
	handler.saveWorkouts(w, r, true)
}

func (handler *Handler) HandleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	handler.saveWorkouts(w, r, false)
}

func (handler *Handler) saveWorkouts(w http.ResponseWriter, r *http.Request, isTemplate bool) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.save_workouts")
	defer span.End()

	userID, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	var list []workouts.Workout
	if err := pkg.ReadJSON(r, &list); err != nil {
		log.Debugf("save plan workouts, read json: %s", err)
		http.Error(w, "invalid workouts", http.StatusBadRequest)
		return
	}
	for i := range list {
		if list[i].Name == "" {
			http.Error(w, "error, workout name empty", http.StatusBadRequest)
			return
		}
		if !isTemplate && list[i].ScheduledDate == nil {
			http.Error(w, "error, scheduled workout without a date", http.StatusBadRequest)
			return
		}
	}
	span.SetAttributes(attribute.Bool("templates", isTemplate), attribute.Int("workouts", len(list)))

	saved, err := handler.repo.SaveWorkouts(ctx, userID, id, isTemplate, list)
	if err != nil {
		writeError(w, "save plan workouts", err)
		return
	}
	if saved == nil {
		saved = []workouts.Workout{}
	}

	pkg.WriteJSON(w, saved, http.StatusOK)
}

func (handler *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.activate")
	defer span.End()

	userID, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Activate(ctx, userID, id); err != nil {
		writeError(w, "activate plan", err)
		return
	}

	log.Debugf("plan %d activated by user %d", id, userID)
	pkg.WriteTextResponseOK(w, "activated")
}
