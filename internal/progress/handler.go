package progress

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/files"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/units"
	"github.com/2beens/fitcoach/internal/users"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=progress_test

type progressRepo interface {
	Add(ctx context.Context, pl ProgressLog) (*ProgressLog, error)
	Update(ctx context.Context, pl *ProgressLog) error
	Delete(ctx context.Context, userID, id int) (string, error)
	Recent(ctx context.Context, userID, limit int) ([]ProgressLog, error)
	SetPhoto(ctx context.Context, userID, id int, url string) (string, error)
}

type profileGetter interface {
	Get(ctx context.Context, id int) (*users.User, error)
}

type uploader interface {
	Receive(ctx context.Context, r *http.Request, kind files.Kind) (*files.StoredFile, int, error)
}

type fileRemover interface {
	Delete(ctx context.Context, name string) error
}

type Handler struct {
	repo     progressRepo
	profiles profileGetter
	uploader uploader
	remover  fileRemover
	now      func() time.Time
}

func NewHandler(repo progressRepo, profiles profileGetter, uploader uploader, remover fileRemover) *Handler {
	return &Handler{
		repo:     repo,
		profiles: profiles,
		uploader: uploader,
		remover:  remover,
		now:      time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/progress").Subrouter()
	r.HandleFunc("/logs", handler.HandleList).Methods("GET", "OPTIONS").Name("list-progress-logs")
	r.HandleFunc("/logs", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-progress-log")
	r.HandleFunc("/logs/{id:[0-9]+}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-progress-log")
	r.HandleFunc("/logs/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-progress-log")
	r.HandleFunc("/logs/{id:[0-9]+}/photo", handler.HandleUploadPhoto).Methods("POST", "OPTIONS").Name("upload-progress-photo")
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrProgressLogNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidProgressLog):
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) unitSystem(ctx context.Context, userID int) (units.System, error) {
	user, err := handler.profiles.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.UnitSystem.Valid() {
		return units.Metric, nil
	}
	return user.UnitSystem, nil
}

// readLog decodes a log entered in the user's unit system and converts it to metric.
func (handler *Handler) readLog(w http.ResponseWriter, r *http.Request, userID int) (*ProgressLog, bool) {
	var pl ProgressLog
	if err := pkg.ReadJSON(r, &pl); err != nil {
		log.Debugf("progress log, read json: %s", err)
		http.Error(w, "invalid progress log", http.StatusBadRequest)
		return nil, false
	}
	if pl.Date.IsZero() {
		pl.Date = pkg.NewDate(handler.now())
	}

	system, err := handler.unitSystem(r.Context(), userID)
	if err != nil {
		writeError(w, "get unit system", err)
		return nil, false
	}
	if err := ToMetric(&pl, system); err != nil {
		writeError(w, "progress log", err)
		return nil, false
	}
	pl.UserID = userID
	return &pl, true
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	limit, err := pkg.IntQuery(r, "limit", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := handler.repo.Recent(ctx, userID, limit)
	if err != nil {
		writeError(w, "list progress logs", err)
		return
	}
	if list == nil {
		list = []ProgressLog{}
	}

	pkg.WriteJSON(w, list, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pl, ok := handler.readLog(w, r.WithContext(ctx), userID)
	if !ok {
		return
	}
	pl.ID = 0

	added, err := handler.repo.Add(ctx, *pl)
	if err != nil {
		writeError(w, "add progress log", err)
		return
	}
	span.SetAttributes(attribute.Int("progress_log.id", added.ID))

	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.update")
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

	pl, ok := handler.readLog(w, r.WithContext(ctx), userID)
	if !ok {
		return
	}
	pl.ID = id

	if err := handler.repo.Update(ctx, pl); err != nil {
		writeError(w, "update progress log", err)
		return
	}

	pkg.WriteJSON(w, pl, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.delete")
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

	photoURL, err := handler.repo.Delete(ctx, userID, id)
	if err != nil {
		writeError(w, "delete progress log", err)
		return
	}
	handler.removeFile(ctx, photoURL)

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.upload_photo")
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

	stored, status, err := handler.uploader.Receive(ctx, r, files.KindImage)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	previous, err := handler.repo.SetPhoto(ctx, userID, id, stored.URL)
	if err != nil {
		handler.removeFile(ctx, stored.URL)
		writeError(w, "upload progress photo", err)
		return
	}
	handler.removeFile(ctx, previous)

	pkg.WriteJSON(w, stored, http.StatusCreated)
}

func (handler *Handler) removeFile(ctx context.Context, url string) {
	name, ok := strings.CutPrefix(url, files.URLFor(""))
	if !ok || name == "" {
		return
	}
	if err := handler.remover.Delete(ctx, name); err != nil && !errors.Is(err, files.ErrFileNotFound) {
		log.Warnf("remove progress photo %s: %s", name, err)
	}
}
