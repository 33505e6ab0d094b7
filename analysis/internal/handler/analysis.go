package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tgo/filepipe/analysis/internal/service"
)

type AnalysisHandler struct {
	svc *service.AnalysisService
}

func NewAnalysisHandler(svc *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// Start runs (or replays) the analysis for a file.
func (h *AnalysisHandler) Start(c *gin.Context) {
	h.analyze(c)
}

// Get returns the analysis for a file, computing it if absent.
func (h *AnalysisHandler) Get(c *gin.Context) {
	h.analyze(c)
}

func (h *AnalysisHandler) analyze(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	rec, err := h.svc.Analyze(c.Request.Context(), fileID)
	if err != nil {
		h.fail(c, fileID, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// WordCloud returns the word-cloud image for an analyzed file, generating it
// on first request.
func (h *AnalysisHandler) WordCloud(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	png, name, err := h.svc.EnsureWordCloud(c.Request.Context(), fileID)
	if err != nil {
		h.fail(c, fileID, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "image/png", png)
}

func (h *AnalysisHandler) fail(c *gin.Context, fileID uuid.UUID, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAnalysisNotRun):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateContent):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("[AnalysisHandler] %s failed: %v", fileID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
