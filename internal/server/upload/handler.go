// Package upload proxies file uploads to the processing service and turns its
// answer into a download for the browser.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/brizzai/auth-gateway/internal/apperr"
	"github.com/brizzai/auth-gateway/internal/artifact"
	"github.com/brizzai/auth-gateway/internal/auth/middleware"
	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/brizzai/auth-gateway/internal/logger"
	"github.com/brizzai/auth-gateway/internal/metrics"
	"github.com/brizzai/auth-gateway/internal/requester"
	"github.com/brizzai/auth-gateway/internal/utils"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Path is the route the handler is mounted on
const Path = "/api/upload"

const defaultPassthroughType = "text/plain"

// Forwarder sends an upload to the processing service
type Forwarder interface {
	Forward(ctx context.Context, upload *requester.Upload) (*requester.Response, error)
}

// Handler serves POST /api/upload. It expects to run behind
// middleware.RequireSession.
type Handler struct {
	forwarder Forwarder
	artifacts *artifact.Store
	cfg       *config.UploadConfig
	metrics   *metrics.Metrics
}

type HandlerParams struct {
	fx.In

	Forwarder Forwarder
	Artifacts *artifact.Store
	Config    *config.UploadConfig
	Metrics   *metrics.Metrics `optional:"true"`
}

// NewHandler creates a new upload handler
func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		forwarder: params.Forwarder,
		artifacts: params.Artifacts,
		cfg:       params.Config,
		metrics:   params.Metrics,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Recovered from panic in upload handler", zap.Any("panic", rec))
			h.metrics.ObserveUpload(metrics.UploadInternal)
			utils.WriteAppError(w, apperr.Internal(fmt.Errorf("panic: %v", rec)))
		}
	}()

	if s, ok := middleware.SessionFromContext(r.Context()); ok {
		logger.Debug("Upload from session", zap.String("sid", s.ID))
	}

	upload, err := h.readUpload(r)
	if err != nil {
		if errors.Is(err, apperr.ErrMissingFile) {
			logger.Warn("Upload without file", zap.Error(err))
		} else {
			logger.Error("Failed to read upload", zap.Error(err))
			h.metrics.ObserveUpload(metrics.UploadInternal)
		}
		utils.WriteAppError(w, err)
		return
	}

	resp, err := h.forwarder.Forward(r.Context(), upload)
	if err != nil {
		if errors.Is(err, apperr.ErrUpstreamUnreachable) {
			h.metrics.ObserveUpload(metrics.UploadUnreachable)
		} else {
			h.metrics.ObserveUpload(metrics.UploadInternal)
		}
		utils.WriteAppError(w, err)
		return
	}

	if resp.StatusCode != http.StatusOK {
		logger.Info("Processing service reported a failure",
			zap.Int("status", resp.StatusCode),
			zap.Int("size", len(resp.Body)),
		)
		h.metrics.ObserveUpload(metrics.UploadPassthrough)
		h.writePassthrough(w, resp)
		return
	}

	if err := h.writeArtifact(w, resp.Body); err != nil {
		h.metrics.ObserveUpload(metrics.UploadInternal)
		utils.WriteAppError(w, apperr.Internal(err))
		return
	}
	h.metrics.ObserveUpload(metrics.UploadSuccess)
}

// readUpload extracts the file part and buffers it entirely
func (h *Handler) readUpload(r *http.Request) (*requester.Upload, error) {
	if err := r.ParseMultipartForm(h.cfg.MaxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, apperr.MissingFile()
		}
		return nil, apperr.Internal(fmt.Errorf("failed to parse multipart form: %w", err))
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("Failed to remove multipart temp files", zap.Error(err))
		}
	}()

	file, header, err := r.FormFile(h.fieldName())
	if errors.Is(err, http.ErrMissingFile) {
		return nil, apperr.MissingFile()
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to open uploaded file: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to read uploaded file: %w", err))
	}

	return &requester.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// writePassthrough relays the processing service's failure untouched
func (h *Handler) writePassthrough(w http.ResponseWriter, resp *requester.Response) {
	w.Header().Set("Content-Type", resp.ContentType(defaultPassthroughType))
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		logger.Warn("Failed to write passthrough body", zap.Error(err))
	}
}

// writeArtifact sends body as an attachment through a temporary file that is
// removed once the response is written
func (h *Handler) writeArtifact(w http.ResponseWriter, body []byte) error {
	a, err := h.artifacts.Write(body)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Remove()
	}()

	w.Header().Set("Content-Type", h.cfg.ArtifactType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": h.cfg.ArtifactName,
	}))
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := a.CopyTo(w); err != nil {
		// headers are gone, the client sees a truncated body
		logger.Error("Failed to stream artifact", zap.Error(err))
	}
	return nil
}

func (h *Handler) fieldName() string {
	if h.cfg.FieldName == "" {
		return requester.FileField
	}
	return h.cfg.FieldName
}
