package exercises

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/fitcoach/internal/auth"
	"github.com/2beens/fitcoach/internal/files"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=exercises_test

type exercisesRepo interface {
	Add(ctx context.Context, ex Exercise) (*Exercise, error)
	Get(ctx context.Context, id int) (*Exercise, error)
	List(ctx context.Context, params ListParams) ([]Exercise, error)
	Update(ctx context.Context, userID int, ex *Exercise) error
	Delete(ctx context.Context, userID, id int) error
	SetMedia(ctx context.Context, userID, id int, field MediaField, url string) (string, error)
}

type uploader interface {
	Receive(ctx context.Context, r *http.Request, kind files.Kind) (*files.StoredFile, int, error)
}

type fileRemover interface {
	Delete(ctx context.Context, name string) error
}

type Handler struct {
	repo     exercisesRepo
	uploader uploader
	remover  fileRemover
}

func NewHandler(repo exercisesRepo, uploader uploader, remover fileRemover) *Handler {
	return &Handler{
		repo:     repo,
		uploader: uploader,
		remover:  remover,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/exercises").Subrouter()
	r.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-exercise")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-exercise")
	r.HandleFunc("/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-exercise")
	r.HandleFunc("/{id:[0-9]+}/media", handler.HandleUploadMedia).Methods("POST", "OPTIONS").Name("upload-exercise-media")
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrExerciseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNameEmpty), errors.Is(err, ErrInvalidMuscleGroup), errors.Is(err, ErrInvalidDifficulty):
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
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
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	if _, ok := auth.UserIDFromContext(ctx); !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	params := ListParams{
		Search: strings.TrimSpace(query.Get("q")),
	}
	if mg := query.Get("muscle_group"); mg != "" {
		group, ok := CanonicalMuscleGroup(mg)
		if !ok {
			http.Error(w, "error, invalid muscle group", http.StatusBadRequest)
			return
		}
		params.MuscleGroup = group
	}
	if d := query.Get("difficulty"); d != "" {
		level, ok := CanonicalDifficulty(d)
		if !ok {
			http.Error(w, "error, invalid difficulty level", http.StatusBadRequest)
			return
		}
		params.Difficulty = level
	}

	list, err := handler.repo.List(ctx, params)
	if err != nil {
		writeError(w, "list exercises", err)
		return
	}
	if list == nil {
		list = []Exercise{}
	}
	span.SetAttributes(attribute.Int("exercises", len(list)))

	pkg.WriteJSON(w, list, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var ex Exercise
	if err := pkg.ReadJSON(r, &ex); err != nil {
		log.Debugf("add exercise, read json: %s", err)
		http.Error(w, "invalid exercise", http.StatusBadRequest)
		return
	}
	if err := Validate(&ex); err != nil {
		writeError(w, "add exercise", err)
		return
	}
	ex.ID = 0
	ex.CreatedBy = &userID

	added, err := handler.repo.Add(ctx, ex)
	if err != nil {
		writeError(w, "add exercise", err)
		return
	}

	log.Debugf("new exercise added: %d %s", added.ID, added.Name)
	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	_, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	ex, err := handler.repo.Get(ctx, id)
	if err != nil {
		writeError(w, "get exercise", err)
		return
	}

	pkg.WriteJSON(w, ex, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.update")
	defer span.End()

	userID, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	var ex Exercise
	if err := pkg.ReadJSON(r, &ex); err != nil {
		log.Debugf("update exercise, read json: %s", err)
		http.Error(w, "invalid exercise", http.StatusBadRequest)
		return
	}
	if err := Validate(&ex); err != nil {
		writeError(w, "update exercise", err)
		return
	}
	ex.ID = id
	ex.CreatedBy = &userID

	if err := handler.repo.Update(ctx, userID, &ex); err != nil {
		writeError(w, "update exercise", err)
		return
	}

	pkg.WriteJSON(w, ex, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	userID, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		writeError(w, "delete exercise", err)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

// HandleUploadMedia stores an image or video (?kind=) and links it to the exercise.
func (handler *Handler) HandleUploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.upload_media")
	defer span.End()

	userID, id, ok := userAndID(w, r)
	if !ok {
		return
	}

	var field MediaField
	kind, _ := files.ParseKind(r.URL.Query().Get("kind"))
	switch kind {
	case files.KindImage:
		field = MediaImage
	case files.KindVideo:
		field = MediaVideo
	default:
		http.Error(w, "error, kind must be image or video", http.StatusBadRequest)
		return
	}

	if _, err := handler.repo.Get(ctx, id); err != nil {
		writeError(w, "upload exercise media", err)
		return
	}

	stored, status, err := handler.uploader.Receive(ctx, r, kind)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	previous, err := handler.repo.SetMedia(ctx, userID, id, field, stored.URL)
	if err != nil {
		handler.removeFile(ctx, stored.URL)
		writeError(w, "upload exercise media", err)
		return
	}
	handler.removeFile(ctx, previous)

	span.SetAttributes(attribute.String("file.name", stored.Name))
	pkg.WriteJSON(w, stored, http.StatusCreated)
}

// removeFile deletes a file previously served from the local store. Foreign urls are left alone.
func (handler *Handler) removeFile(ctx context.Context, url string) {
	name, ok := strings.CutPrefix(url, files.URLFor(""))
	if !ok || name == "" {
		return
	}
	if err := handler.remover.Delete(ctx, name); err != nil && !errors.Is(err, files.ErrFileNotFound) {
		log.Warnf("remove exercise media %s: %s", name, err)
	}
}
