package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type builder interface {
	Build(ctx context.Context, userID int, now time.Time) (*Dashboard, error)
}

type Handler struct {
	builder builder
	now     func() time.Time
}

func NewHandler(builder builder) *Handler {
	return &Handler{
		builder: builder,
		now:     time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/dashboard", handler.HandleGet).Methods("GET", "OPTIONS").Name("dashboard")
}

// HandleGet serves the dashboard for today, or for ?date=yyyy-MM-dd.
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	now := handler.now()
	if date := r.URL.Query().Get("date"); date != "" {
		day, err := pkg.ParseDate(date)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		now = day
	}

	d, err := handler.builder.Build(ctx, userID, now)
	if err != nil {
		log.Errorf("build dashboard: %s", err)
		http.Error(w, "build dashboard failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, d, http.StatusOK)
}
