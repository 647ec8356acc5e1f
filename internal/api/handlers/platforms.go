package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardfolio/backend/internal/models"
	"github.com/codyseavey/cardfolio/backend/internal/services"
)

type PlatformHandler struct {
	aggregator *services.Aggregator
}

func NewPlatformHandler(aggregator *services.Aggregator) *PlatformHandler {
	return &PlatformHandler{aggregator: aggregator}
}

type platformStatus struct {
	Platform models.Platform `json:"platform"`
	Enabled  bool            `json:"enabled"`
}

// ListPlatforms returns every supported platform and whether it is queried
func (h *PlatformHandler) ListPlatforms(c *gin.Context) {
	enabled := make(map[models.Platform]bool)
	for _, p := range h.aggregator.Platforms() {
		enabled[p] = true
	}

	platforms := make([]platformStatus, 0, len(models.AllPlatforms()))
	for _, p := range models.AllPlatforms() {
		platforms = append(platforms, platformStatus{Platform: p, Enabled: enabled[p]})
	}

	c.JSON(http.StatusOK, gin.H{"platforms": platforms})
}
