package nutrition

import (
	"errors"
	"net/http"
	"time"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type Handler struct {
	repo    foodLogsRepo
	service *Service
	now     func() time.Time
}

func NewHandler(repo foodLogsRepo, service *Service) *Handler {
	return &Handler{
		repo:    repo,
		service: service,
		now:     time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/nutrition").Subrouter()
	r.HandleFunc("/logs", handler.HandleList).Methods("GET", "OPTIONS").Name("list-food-logs")
	r.HandleFunc("/logs", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-food-log")
	r.HandleFunc("/logs/{id:[0-9]+}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-food-log")
	r.HandleFunc("/logs/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-food-log")
	r.HandleFunc("/summary", handler.HandleSummary).Methods("GET", "OPTIONS").Name("nutrition-summary")
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrFoodLogNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidFoodLog), errors.Is(err, ErrInvalidMealType):
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

// dateParam reads ?date=YYYY-MM-DD, today when absent.
func (handler *Handler) dateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return pkg.Day(handler.now()), nil
	}
	return pkg.ParseDate(raw)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.nutrition.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	date, err := handler.dateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, err := handler.repo.ListByDate(ctx, userID, date)
	if err != nil {
		writeError(w, "list food logs", err)
		return
	}
	if logs == nil {
		logs = []FoodLog{}
	}

	pkg.WriteJSON(w, logs, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.nutrition.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var fl FoodLog
	if err := pkg.ReadJSON(r, &fl); err != nil {
		log.Debugf("add food log, read json: %s", err)
		http.Error(w, "invalid food log", http.StatusBadRequest)
		return
	}
	if fl.Date.IsZero() {
		fl.Date = pkg.NewDate(handler.now())
	}
	if err := Validate(&fl); err != nil {
		writeError(w, "add food log", err)
		return
	}
	fl.ID = 0
	fl.UserID = userID

	added, err := handler.repo.Add(ctx, fl)
	if err != nil {
		writeError(w, "add food log", err)
		return
	}
	span.SetAttributes(attribute.Int("food_log.id", added.ID))

	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.nutrition.update")
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

	var fl FoodLog
	if err := pkg.ReadJSON(r, &fl); err != nil {
		log.Debugf("update food log, read json: %s", err)
		http.Error(w, "invalid food log", http.StatusBadRequest)
		return
	}
	if err := Validate(&fl); err != nil {
		writeError(w, "update food log", err)
		return
	}
	fl.ID = id
	fl.UserID = userID

	if err := handler.repo.Update(ctx, &fl); err != nil {
		writeError(w, "update food log", err)
		return
	}

	pkg.WriteJSON(w, fl, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.nutrition.delete")
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
		writeError(w, "delete food log", err)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.nutrition.summary")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	date, err := handler.dateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := handler.service.DailySummary(ctx, userID, date)
	if err != nil {
		writeError(w, "nutrition summary", err)
		return
	}

	pkg.WriteJSON(w, summary, http.StatusOK)
}
