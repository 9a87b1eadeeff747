package files

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const uploadFormField = "file"

type store interface {
	Save(ctx context.Context, originalName string, kind Kind, src io.Reader) (*StoredFile, error)
	Open(ctx context.Context, name string) (*os.File, error)
}

type Handler struct {
	store          store
	maxUploadBytes int64
	metricsManager *metrics.Manager
}

func NewHandler(store store, maxUploadBytes int64, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		store:          store,
		maxUploadBytes: maxUploadBytes,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/files", handler.HandleUpload).Methods("POST", "OPTIONS").Name("upload-file")
	r.HandleFunc("/files/{name}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-file")
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.files.get")
	defer span.End()

	name := mux.Vars(r)["name"]
	f, err := handler.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrInvalidFileName) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.Errorf("open file %s: %s", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		log.Errorf("stat file %s: %s", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// HandleUpload stores a generic upload, ?kind=image|video narrows accepted content.
func (handler *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.files.upload")
	defer span.End()

	kind, ok := ParseKind(r.URL.Query().Get("kind"))
	if !ok {
		http.Error(w, "error, invalid kind", http.StatusBadRequest)
		return
	}

	stored, status, err := handler.Receive(ctx, r, kind)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	pkg.WriteJSON(w, stored, http.StatusCreated)
}

// Receive reads the multipart "file" field from r and stores it.
// On failure it returns the HTTP status to answer with.
func (handler *Handler) Receive(ctx context.Context, r *http.Request, kind Kind) (*StoredFile, int, error) {
	if handler.maxUploadBytes > 0 {
		// a little headroom for the multipart envelope
		r.Body = http.MaxBytesReader(nil, r.Body, handler.maxUploadBytes+1<<20)
	}

	file, fileHeader, err := r.FormFile(uploadFormField)
	if err != nil {
		log.Debugf("upload, read form file: %s", err)
		return nil, http.StatusBadRequest, errors.New("error, file missing or too big")
	}
	defer func(f multipart.File) {
		if err := f.Close(); err != nil {
			log.Warnf("close uploaded file: %s", err)
		}
	}(file)

	stored, err := handler.store.Save(ctx, fileHeader.Filename, kind, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedType):
			return nil, http.StatusUnsupportedMediaType, errors.New("error, unsupported file type")
		case errors.Is(err, ErrFileTooBig):
			return nil, http.StatusRequestEntityTooLarge, errors.New("error, file too big")
		}
		log.Errorf("upload, save file: %s", err)
		return nil, http.StatusInternalServerError, errors.New("failed to upload file")
	}

	if handler.metricsManager != nil {
		handler.metricsManager.CounterUploads.With(prometheus.Labels{"kind": string(kind)}).Inc()
	}
	return stored, http.StatusCreated, nil
}
