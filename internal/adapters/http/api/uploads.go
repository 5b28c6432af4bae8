package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/okian/insights/internal/adapters/ingest"
	"github.com/okian/insights/internal/adapters/mq/queue"
	"github.com/okian/insights/internal/adapters/session"
	"github.com/okian/insights/internal/domain/cleaning"
	"github.com/okian/insights/internal/domain/forecast"
	"github.com/okian/insights/internal/domain/pipeline"
	"github.com/okian/insights/internal/domain/types"
	"github.com/okian/insights/pkg/logger"
	"github.com/okian/insights/pkg/metrics"
)

const (
	uploadField      = "file"
	multipartMemory  = 8 << 20
	uploadStatusOK   = "ok"
	uploadStatusFail = "failed"
	uploadStatusRej  = "rejected"
)

// UploadDependencies defines the interface for processing uploads.
type UploadDependencies interface {
	Process(ctx context.Context, in pipeline.Loader) (*pipeline.Result, error)
}

// uploadResponse mirrors the OpenAPI schema for a processed upload.
type uploadResponse struct {
	BusinessName string          `json:"business_name"`
	File         string          `json:"file"`
	Format       string          `json:"format"`
	Columns      []string        `json:"columns"`
	Preview      types.Table     `json:"preview"`
	Report       cleaning.Report `json:"report"`
	Model        forecast.Model  `json:"model"`
	Daily        types.Table     `json:"daily"`
	Pivot        types.Table     `json:"pivot"`
	Combined     types.Table     `json:"combined"`
}

// UploadHandler handles sales file uploads.
type UploadHandler struct {
	deps     UploadDependencies
	maxBytes int64
	logger   logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps UploadDependencies, maxBytes int64, l logger.Logger) *UploadHandler {
	return &UploadHandler{deps: deps, maxBytes: maxBytes, logger: l}
}

// HandleUpload handles POST /uploads requests. The file is either the
// multipart field "file" or the raw request body. It must run behind
// AuthMiddleware.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	up, err := h.readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.RecordUpload(uploadStatusRej, "unknown")
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, h.maxBytes))
			return
		}
		metrics.RecordUpload(uploadStatusRej, "unknown")
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	format := string(up.Format())
	res, err := h.deps.Process(r.Context(), up)
	if err != nil {
		metrics.RecordUpload(uploadStatusFail, format)
		h.writePipelineError(r.Context(), w, err)
		return
	}
	metrics.RecordUpload(uploadStatusOK, format)
	h.logger.Info(r.Context(), "upload processed",
		logger.String("username", s.Username),
		logger.String("file", up.Name),
		logger.Int("rows", res.Report.RowsOut),
		logger.Int("days", len(res.Daily)),
	)

	writeJSON(w, http.StatusOK, uploadResponse{
		BusinessName: s.BusinessName,
		File:         up.Name,
		Format:       format,
		Columns:      res.Columns,
		Preview:      res.PreviewTable(),
		Report:       res.Report,
		Model:        res.Model,
		Daily:        res.DailyTable(),
		Pivot:        res.PivotTable(),
		Combined:     res.CombinedTable(),
	})
}

func (h *UploadHandler) readUpload(r *http.Request) (ingest.Upload, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return ingest.Upload{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		f, hdr, err := r.FormFile(uploadField)
		if err != nil {
			return ingest.Upload{}, fmt.Errorf("%w: field %q", ErrNoFile, uploadField)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return ingest.Upload{}, fmt.Errorf("read upload: %w", err)
		}
		return ingest.Upload{Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Data: data}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return ingest.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	name := path.Base(strings.TrimSpace(r.URL.Query().Get("name")))
	if name == "." || name == "/" {
		name = "upload"
	}
	return ingest.Upload{Name: name, ContentType: r.Header.Get("Content-Type"), Data: data}, nil
}

func (h *UploadHandler) writePipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrFull):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "busy", err)
		return
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	perr, ok := pipeline.AsError(err)
	if !ok {
		h.logger.Error(ctx, "upload failed outside the pipeline", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	status := http.StatusUnprocessableEntity
	if perr.Kind == pipeline.KindInternal {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Code: string(perr.Kind), Message: perr.Message()})
}
