package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricepilot/backend/internal/domain"
	"github.com/pricepilot/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysis *usecase.AnalysisService
	reader   domain.DecisionReader
}

// NewHandler creates a new HTTP handler
func NewHandler(analysis *usecase.AnalysisService, reader domain.DecisionReader) *Handler {
	return &Handler{analysis: analysis, reader: reader}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricepilot-backend",
		"version": "1.0.0",
	})
}

// runAnalysisRequest is the wire shape of an analysis run. Rows are ordered
// cell lists because column resolution depends on column order.
type runAnalysisRequest struct {
	SessionID   string                      `json:"sessionId"`
	Merchant    []domain.Row                `json:"merchant" binding:"required"`
	Competitors []usecase.CompetitorCatalog `json:"competitors"`
}

// RunAnalysis executes one catalog pass and returns its decisions and summary.
func (h *Handler) RunAnalysis(c *gin.Context) {
	var req runAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	state, err := h.analysis.Run(c.Request.Context(), usecase.RunRequest{
		SessionID:   req.SessionID,
		Merchant:    req.Merchant,
		Competitors: req.Competitors,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[HTTP] analysis run failed: %v", err)
		// A canceled client context still produced partial, persisted work.
		if state != nil {
			c.JSON(http.StatusOK, state)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetDecisions returns the persisted decision sequence of a session.
func (h *Handler) GetDecisions(c *gin.Context) {
	sessionID := c.Param("sessionID")
	decisions, err := h.reader.Decisions(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.Printf("[HTTP] decisions lookup failed for %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"decisions": decisions,
	})
}

// GetSummary returns per-category and per-risk counts for a session.
func (h *Handler) GetSummary(c *gin.Context) {
	sessionID := c.Param("sessionID")
	decisions, err := h.reader.Decisions(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.Printf("[HTTP] summary lookup failed for %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"summary":   domain.Summarize(decisions),
	})
}
