package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/settlement-converter/internal/pipeline"
	"github.com/garyjia/settlement-converter/internal/settlement"
	"github.com/garyjia/settlement-converter/pkg/utils"
)

// Upload form fields
const (
	FieldSource = "source"
	FieldReply  = "reply"
)

// Response headers summarising a conversion
const (
	HeaderRecords   = "X-Settlement-Records"
	HeaderAnnotated = "X-Settlement-Annotated"
	HeaderIssues    = "X-Settlement-Issues"
	HeaderCharset   = "X-Settlement-Charset"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	pipelines Pipelines
	maxUpload int64
	version   string
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(pipelines Pipelines, maxUpload int64, version string, logger *zap.Logger) *Handlers {
	return &Handlers{
		pipelines: pipelines,
		maxUpload: maxUpload,
		version:   version,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.version,
		},
	})
}

// ConvertOffer handles POST /api/offers/:variant
func (h *Handlers) ConvertOffer(c *gin.Context) {
	variant, ok := h.variant(c)
	if !ok {
		return
	}
	p, err := h.pipelines.Offer(variant)
	if err != nil {
		h.fail(c, http.StatusNotFound, err)
		return
	}

	workDir, cleanup, err := h.workDir()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	defer cleanup()

	h.limitBody(c)
	source, err := h.saveUpload(c, FieldSource, workDir, "offer.txt")
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	res, err := p.Convert(c.Request.Context(), source, "")
	if err != nil {
		h.logger.Error("Offer conversion failed",
			zap.String("variant", string(variant)),
			zap.Error(err))
		var data interface{}
		if res != nil {
			data = res.Issues
		}
		c.JSON(statusFor(err), Response{Success: false, Data: data, Error: err.Error()})
		return
	}

	c.Header(HeaderRecords, strconv.Itoa(len(res.Records)))
	c.Header(HeaderIssues, strconv.Itoa(len(res.Issues)))
	c.Header(HeaderCharset, res.Charset)
	c.FileAttachment(res.OutputPath, filepath.Base(res.OutputPath))
}

// ReconcileReply handles POST /api/replies/:variant
func (h *Handlers) ReconcileReply(c *gin.Context) {
	variant, ok := h.variant(c)
	if !ok {
		return
	}
	p, err := h.pipelines.Reply(variant)
	if err != nil {
		h.fail(c, http.StatusNotFound, err)
		return
	}

	workDir, cleanup, err := h.workDir()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	defer cleanup()

	h.limitBody(c)
	source, err := h.saveUpload(c, FieldSource, workDir, "offer.txt")
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	reply, err := h.saveUpload(c, FieldReply, filepath.Join(workDir, FieldReply), "reply.xls")
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	res, err := p.ReconcileAndAnnotate(c.Request.Context(), source, reply, "")
	if err != nil {
		h.logger.Error("Reply reconciliation failed",
			zap.String("variant", string(variant)),
			zap.Error(err))
		h.fail(c, statusFor(err), err)
		return
	}
	if !res.Consistent() {
		c.JSON(http.StatusConflict, Response{Success: false, Data: res, Error: res.Message})
		return
	}

	c.Header(HeaderAnnotated, strconv.Itoa(res.Annotated))
	c.Header(HeaderIssues, strconv.Itoa(len(res.Issues)))
	c.Header(HeaderCharset, res.Charset)
	c.FileAttachment(res.OutputPath, filepath.Base(res.OutputPath))
}

func (h *Handlers) variant(c *gin.Context) (pipeline.Variant, bool) {
	v, err := pipeline.ParseVariant(c.Param("variant"))
	if err != nil {
		h.fail(c, http.StatusNotFound, err)
		return "", false
	}
	return v, true
}

// workDir gives each request its own scratch directory.
func (h *Handlers) workDir() (string, func(), error) {
	dir, err := os.MkdirTemp("", "settlement-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			h.logger.Warn("Failed to remove work directory", zap.String("dir", dir), zap.Error(err))
		}
	}, nil
}

func (h *Handlers) limitBody(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
}

// saveUpload stores a form file in dir under its sanitized name, or fallback
// when the client sent none.
func (h *Handlers) saveUpload(c *gin.Context, field, dir, fallback string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("missing upload %q: %w", field, err)
	}
	name := utils.SanitizeFilename(fh.Filename)
	if name == "" {
		name = fallback
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, nil
}

func (h *Handlers) fail(c *gin.Context, status int, err error) {
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// statusFor maps pipeline errors to response codes. Problems with the
// uploaded content are the client's, everything else is ours.
func statusFor(err error) int {
	switch {
	case errors.Is(err, settlement.ErrEmptySource),
		errors.Is(err, settlement.ErrEncoding),
		errors.Is(err, settlement.ErrNoRecords),
		errors.Is(err, settlement.ErrRead),
		errors.Is(err, settlement.ErrDuplicateKey):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
