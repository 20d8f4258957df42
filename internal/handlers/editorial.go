package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/services"
	"github.com/atcpro/atcpro/pkg/models"
)

type EditorialHandler struct {
	populator services.EditorialPopulatorInterface
	logger    *logrus.Logger
}

func NewEditorialHandler(populator services.EditorialPopulatorInterface, logger *logrus.Logger) *EditorialHandler {
	return &EditorialHandler{
		populator: populator,
		logger:    logger,
	}
}

// Scrape runs the editorial populator in the foreground. limit caps the
// number of problems fetched; 0 means all of them.
func (h *EditorialHandler) Scrape(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = v
	}

	report, err := h.populator.Run(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Editorial scrape failed")
		respondError(c, http.StatusBadGateway, "SCRAPE_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, models.ScrapeResponse{
		RunID:       report.RunID.String(),
		Candidates:  report.Candidates,
		Stored:      report.Stored,
		Unavailable: report.Unavailable,
		Failed:      report.Failed,
		Skipped:     report.Skipped,
		Ineligible:  report.Ineligible,
	})
}
