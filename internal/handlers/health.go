package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/services"
)

// healthCodes maps an overall health state to its response code. A degraded
// service (for example an empty editorial store) still answers requests.
var healthCodes = map[string]int{
	"healthy":   http.StatusOK,
	"degraded":  http.StatusOK,
	"unhealthy": http.StatusServiceUnavailable,
}

type HealthHandler struct {
	logger        *logrus.Logger
	healthService *services.HealthService
}

func NewHealthHandler(logger *logrus.Logger, healthService *services.HealthService) *HealthHandler {
	return &HealthHandler{
		logger:        logger,
		healthService: healthService,
	}
}

// Check reports the cache and editorial store state.
func (h *HealthHandler) Check(c *gin.Context) {
	status := h.healthService.CheckHealth(c.Request.Context())

	code, ok := healthCodes[status.Status]
	if !ok {
		code = http.StatusInternalServerError
	}
	if status.Status != "healthy" {
		h.logger.WithFields(logrus.Fields{
			"status":       status.Status,
			"critical":     status.Critical,
			"non_critical": status.NonCritical,
		}).Warn("Health check not passing")
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(code, status)
}
