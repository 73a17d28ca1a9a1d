// Package api exposes the case orchestration service over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/application/port"
	"github.com/donellmccoy/lod-tracker/internal/application/service"
	"github.com/donellmccoy/lod-tracker/internal/domain/workflow"
	"github.com/donellmccoy/lod-tracker/internal/report"
)

// Handler holds the HTTP handlers for the case API
type Handler struct {
	cases    service.CaseService
	exporter *report.Exporter
	logger   *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(cases service.CaseService, exporter *report.Exporter, logger *zap.Logger) *Handler {
	return &Handler{cases: cases, exporter: exporter, logger: logger}
}

// CreateCase handles POST /api/v1/cases
func (h *Handler) CreateCase(c *gin.Context) {
	var input service.CreateCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.cases.CreateCase(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetCase handles GET /api/v1/cases/:id
func (h *Handler) GetCase(c *gin.Context) {
	found, err := h.cases.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// ListCases handles GET /api/v1/cases
func (h *Handler) ListCases(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	cases, err := h.cases.ListCases(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

// UpdateCase handles PATCH /api/v1/cases/:id
func (h *Handler) UpdateCase(c *gin.Context) {
	var patch service.CaseDetailsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.cases.UpdateCaseDetails(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type fireRequest struct {
	Trigger string `json:"trigger" binding:"required"`
	Notes   string `json:"notes"`
}

// FireTrigger handles POST /api/v1/cases/:id/trigger
func (h *Handler) FireTrigger(c *gin.Context) {
	var req fireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trigger is required"})
		return
	}

	result, err := h.cases.FireTrigger(c.Request.Context(), c.Param("id"), workflow.Trigger(req.Trigger), req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPermittedTriggers handles GET /api/v1/cases/:id/triggers
func (h *Handler) GetPermittedTriggers(c *gin.Context) {
	triggers, err := h.cases.GetPermittedTriggers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggers": triggers})
}

type validateRequest struct {
	Trigger string `json:"trigger" binding:"required"`
}

// ValidateTransition handles POST /api/v1/cases/:id/validate
func (h *Handler) ValidateTransition(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trigger is required"})
		return
	}

	result, err := h.cases.ValidateTransition(c.Request.Context(), c.Param("id"), workflow.Trigger(req.Trigger))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCaseHistory handles GET /api/v1/cases/:id/history
func (h *Handler) GetCaseHistory(c *gin.Context) {
	entries, err := h.cases.GetCaseHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// ExportCaseHistory handles GET /api/v1/cases/:id/history/export
func (h *Handler) ExportCaseHistory(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	cse, err := h.cases.GetCase(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	entries, err := h.cases.GetCaseHistory(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	workbook, err := h.exporter.BuildHistoryWorkbook(cse, entries)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer workbook.Close()

	var buf bytes.Buffer
	if _, err := workbook.WriteTo(&buf); err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-audit.xlsx", cse.CaseNumber))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// GetAuthority handles GET /api/v1/authorities
func (h *Handler) GetAuthority(c *gin.Context) {
	variant := c.Query("variant")
	state := workflow.State(c.Query("state"))

	c.JSON(http.StatusOK, gin.H{
		"variant":   variant,
		"state":     state,
		"authority": h.cases.GetCurrentAuthority(variant, state),
	})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps service errors to HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"errors": validationErr.Errors,
		})
	case errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, port.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "case was modified concurrently, reload and retry"})
	case errors.Is(err, port.ErrDuplicateCaseNumber):
		c.JSON(http.StatusConflict, gin.H{"error": "case number already exists"})
	default:
		h.logger.Error("Unhandled API error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	var value int
	if _, err := fmt.Sscanf(c.Query(name), "%d", &value); err != nil || value < 0 {
		return fallback
	}
	return value
}
