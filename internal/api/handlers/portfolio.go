package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardfolio/backend/internal/models"
	"github.com/codyseavey/cardfolio/backend/internal/services"
)

type PortfolioHandler struct {
	aggregator *services.Aggregator
	snapshots  *services.SnapshotService
}

func NewPortfolioHandler(aggregator *services.Aggregator, snapshots *services.SnapshotService) *PortfolioHandler {
	return &PortfolioHandler{
		aggregator: aggregator,
		snapshots:  snapshots,
	}
}

func ownerParam(c *gin.Context) (string, bool) {
	owner := strings.TrimSpace(c.Param("owner"))
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner is required"})
		return "", false
	}
	return owner, true
}

// GetPortfolio returns the combined portfolio across every enabled platform
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	owner, ok := ownerParam(c)
	if !ok {
		return
	}

	portfolio, err := h.aggregator.GetPortfolio(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetPlatformPortfolio returns the metrics of a single platform
func (h *PortfolioHandler) GetPlatformPortfolio(c *gin.Context) {
	owner, ok := ownerParam(c)
	if !ok {
		return
	}
	platform := models.Platform(strings.ToLower(c.Param("platform")))

	metrics, err := h.aggregator.GetPlatformPortfolio(c.Request.Context(), owner, platform)
	if err != nil {
		if errors.Is(err, services.ErrUnknownPlatform) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// GetValueHistory returns portfolio value snapshots for charting. Without a
// platform query the combined history is returned.
func (h *PortfolioHandler) GetValueHistory(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot history not enabled"})
		return
	}

	owner, ok := ownerParam(c)
	if !ok {
		return
	}
	period := c.DefaultQuery("period", "month")
	platform := models.Platform(strings.ToLower(c.Query("platform")))

	snapshots, err := h.snapshots.GetHistory(owner, platform, period, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ValueHistoryResponse{
		OwnerID:   owner,
		Platform:  platform,
		Snapshots: snapshots,
		Period:    period,
		Latest:    h.snapshots.GetLastSnapshot(owner, platform),
	})
}
