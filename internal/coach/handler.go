package coach

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/middleware"
	"github.com/2beens/fitcoach/internal/plans"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/users"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=coach_test

type trainer interface {
	GenerateQuestions(ctx context.Context, userID int) ([]string, error)
	GeneratePlan(ctx context.Context, userID int, responses []Answer) (*TrainerLog, error)
	Logs(ctx context.Context, userID int) ([]TrainerLog, error)
	Accept(ctx context.Context, userID, logID int) error
	Deny(ctx context.Context, userID, logID int) error
	ImportPlan(ctx context.Context, userID, logID int) (*plans.WorkoutPlan, error)
	SuggestExerciseParams(ctx context.Context, goal, exerciseName string) (*ExerciseSuggestion, error)
}

type quoter interface {
	DailyQuote(ctx context.Context, now time.Time) Quote
}

type Handler struct {
	trainer trainer
	quotes  quoter
	now     func() time.Time
}

func NewHandler(trainer trainer, quotes quoter) *Handler {
	return &Handler{
		trainer: trainer,
		quotes:  quotes,
		now:     time.Now,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) {
	mainRouter.HandleFunc("/quote/daily", handler.HandleDailyQuote).Methods("GET", "OPTIONS").Name("daily-quote")

	r := mainRouter.PathPrefix("/coach").Subrouter()
	r.HandleFunc("/questions", handler.HandleQuestions).Methods("POST", "OPTIONS").Name("coach-questions")
	r.HandleFunc("/plan", handler.HandlePlan).Methods("POST", "OPTIONS").Name("coach-plan")
	r.HandleFunc("/logs", handler.HandleLogs).Methods("GET", "OPTIONS").Name("coach-logs")
	r.HandleFunc("/logs/{id:[0-9]+}/accept", handler.HandleAccept).Methods("POST", "OPTIONS").Name("coach-accept")
	r.HandleFunc("/logs/{id:[0-9]+}/deny", handler.HandleDeny).Methods("POST", "OPTIONS").Name("coach-deny")
	r.HandleFunc("/logs/{id:[0-9]+}/import", handler.HandleImport).Methods("POST", "OPTIONS").Name("coach-import")
	r.HandleFunc("/suggest-exercise", handler.HandleSuggestExercise).Methods("POST", "OPTIONS").Name("coach-suggest-exercise")

	// every coach call may end up at the paid llm api
	r.Use(middleware.RateLimit(rateLimiter, "coach", allowedPerMin, metricsManager))
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrTrainerLogNotFound), errors.Is(err, users.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrNoPlanToImport):
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrLLMFailed):
		log.Errorf("%s: %s", op, err)
		http.Error(w, "coach is not available, try again later", http.StatusBadGateway)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleDailyQuote(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.daily_quote")
	defer span.End()

	pkg.WriteJSON(w, handler.quotes.DailyQuote(ctx, handler.now()), http.StatusOK)
}

func (handler *Handler) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.questions")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	questions, err := handler.trainer.GenerateQuestions(ctx, userID)
	if err != nil {
		writeError(w, "generate questions", err)
		return
	}

	pkg.WriteJSON(w, map[string][]string{"questions": questions}, http.StatusOK)
}

type planRequest struct {
	Responses []Answer `json:"responses"`
}

func (handler *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.plan")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req planRequest
	if err := pkg.ReadJSON(r, &req); err != nil {
		log.Debugf("coach plan, read json: %s", err)
		http.Error(w, "invalid check-in responses", http.StatusBadRequest)
		return
	}

	trainerLog, err := handler.trainer.GeneratePlan(ctx, userID, req.Responses)
	if err != nil {
		writeError(w, "generate plan", err)
		return
	}
	span.SetAttributes(attribute.Int("trainer_log.id", trainerLog.ID))

	pkg.WriteJSON(w, trainerLog, http.StatusCreated)
}

func (handler *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.logs")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	logs, err := handler.trainer.Logs(ctx, userID)
	if err != nil {
		writeError(w, "list trainer logs", err)
		return
	}
	if logs == nil {
		logs = []TrainerLog{}
	}

	pkg.WriteJSON(w, logs, http.StatusOK)
}

// logAction runs fn for the trainer log in the path.
func (handler *Handler) logAction(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, userID, logID int) error) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach."+op)
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	logID, err := pkg.IntVar(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("trainer_log.id", logID))

	if err := fn(ctx, userID, logID); err != nil {
		writeError(w, op+" trainer log", err)
	}
}

func (handler *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	handler.logAction(w, r, "accept", func(ctx context.Context, userID, logID int) error {
		if err := handler.trainer.Accept(ctx, userID, logID); err != nil {
			return err
		}
		pkg.WriteTextResponseOK(w, "accepted")
		return nil
	})
}

func (handler *Handler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	handler.logAction(w, r, "deny", func(ctx context.Context, userID, logID int) error {
		if err := handler.trainer.Deny(ctx, userID, logID); err != nil {
			return err
		}
		pkg.WriteTextResponseOK(w, "denied")
		return nil
	})
}

func (handler *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	handler.logAction(w, r, "import", func(ctx context.Context, userID, logID int) error {
		plan, err := handler.trainer.ImportPlan(ctx, userID, logID)
		if err != nil {
			return err
		}
		pkg.WriteJSON(w, plan, http.StatusCreated)
		return nil
	})
}

type suggestExerciseRequest struct {
	Goal         string `json:"goal"`
	ExerciseName string `json:"exercise_name"`
}

func (handler *Handler) HandleSuggestExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.suggest_exercise")
	defer span.End()

	if _, ok := auth.UserIDFromContext(ctx); !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req suggestExerciseRequest
	if err := pkg.ReadJSON(r, &req); err != nil {
		log.Debugf("suggest exercise, read json: %s", err)
		http.Error(w, "invalid exercise suggestion request", http.StatusBadRequest)
		return
	}

	suggestion, err := handler.trainer.SuggestExerciseParams(ctx, req.Goal, req.ExerciseName)
	if err != nil {
		writeError(w, "suggest exercise", err)
		return
	}

	pkg.WriteJSON(w, suggestion, http.StatusOK)
}
