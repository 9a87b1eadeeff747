package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const sniffLen = 512

var (
	ErrFileNotFound       = errors.New("file not found")
	ErrFileTooBig         = errors.New("file too big")
	ErrUnsupportedType    = errors.New("unsupported file type")
	ErrInvalidFileName    = errors.New("invalid file name")
	ErrRootPathNotDefined = errors.New("root path cannot be empty")
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAny   Kind = "any"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(s)) {
	case KindImage:
		return KindImage, true
	case KindVideo:
		return KindVideo, true
	case KindAny, "":
		return KindAny, true
	}
	return "", false
}

func (k Kind) accepts(contentType string) bool {
	switch k {
	case KindImage:
		return strings.HasPrefix(contentType, "image/")
	case KindVideo:
		return strings.HasPrefix(contentType, "video/")
	default:
		return strings.HasPrefix(contentType, "image/") ||
			strings.HasPrefix(contentType, "video/") ||
			contentType == "application/pdf"
	}
}

type StoredFile struct {
	Name        string    `json:"name"`
	URL         string    `json:"file_url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// DiskStore keeps uploaded files flat in one directory under generated names.
type DiskStore struct {
	rootPath string
	maxBytes int64
}

func NewDiskStore(rootPath string, maxBytes int64) (*DiskStore, error) {
	if rootPath == "" {
		return nil, ErrRootPathNotDefined
	}
	if err := pkg.EnsureDir(rootPath); err != nil {
		return nil, fmt.Errorf("ensure uploads dir: %w", err)
	}
	return &DiskStore{
		rootPath: rootPath,
		maxBytes: maxBytes,
	}, nil
}

func URLFor(name string) string {
	return "/files/" + name
}

func (ds *DiskStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidFileName
	}
	return filepath.Join(ds.rootPath, name), nil
}

// Save sniffs the content type, enforces the size limit and writes the file under a new uuid name.
func (ds *DiskStore) Save(ctx context.Context, originalName string, kind Kind, src io.Reader) (_ *StoredFile, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "files.diskStore.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("file.original_name", originalName))

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !kind.accepts(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	name := uuid.NewString() + extensionFor(originalName, contentType)
	filePath, err := ds.path(name)
	if err != nil {
		return nil, err
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}

	body := io.MultiReader(bytes.NewReader(head), src)
	if ds.maxBytes > 0 {
		body = io.LimitReader(body, ds.maxBytes+1)
	}
	size, err := io.Copy(dst, body)
	closeErr := dst.Close()
	if err == nil && ds.maxBytes > 0 && size > ds.maxBytes {
		err = ErrFileTooBig
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		if removeErr := os.Remove(filePath); removeErr != nil {
			log.Errorf("failed to remove partial upload %s: %s", filePath, removeErr)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int64("file.size", size))
	log.Debugf("files: stored %s as %s [%s, %d bytes]", originalName, name, contentType, size)

	return &StoredFile{
		Name:        name,
		URL:         URLFor(name),
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now(),
	}, nil
}

// Open returns the stored file. The caller closes it.
func (ds *DiskStore) Open(ctx context.Context, name string) (_ *os.File, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "files.diskStore.open")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	filePath, err := ds.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (ds *DiskStore) Delete(ctx context.Context, name string) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "files.diskStore.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	filePath, err := ds.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrFileNotFound
		}
		return err
	}
	return nil
}

var extensionsByType = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"application/pdf": ".pdf",
}

func extensionFor(originalName, contentType string) string {
	if ext, ok := extensionsByType[contentType]; ok {
		return ext
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 1 && len(ext) <= 5 {
		return ext
	}
	return ""
}
