package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/services"
	"github.com/atcpro/atcpro/pkg/models"
)

type AdviceHandler struct {
	orchestrator services.RecommendationOrchestratorInterface
	advice       services.AdviceServiceInterface
	validator    *validator.Validate
	logger       *logrus.Logger
}

func NewAdviceHandler(
	orchestrator services.RecommendationOrchestratorInterface,
	advice services.AdviceServiceInterface,
	logger *logrus.Logger,
) *AdviceHandler {
	return &AdviceHandler{
		orchestrator: orchestrator,
		advice:       advice,
		validator:    validator.New(),
		logger:       logger,
	}
}

// Create generates a motivational message about the user's recent contests.
// When nothing could be generated the fallback message is returned instead.
func (h *AdviceHandler) Create(c *gin.Context) {
	user, ok := userParam(c)
	if !ok {
		return
	}

	var request models.AdviceRequest
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Unknown persona")
		return
	}
	if request.Persona == "" {
		request.Persona = services.DefaultPersona
	}

	log := h.logger.WithFields(logrus.Fields{"user": user, "persona": request.Persona})

	input := services.AdviceInput{User: user, Persona: request.Persona}
	if result, err := h.orchestrator.Recommend(c.Request.Context(), user, nil); err != nil {
		log.WithError(err).Warn("Recommendation aborted, advising without it")
	} else {
		input.Histories = result.Histories
		input.Problems = describeAll(c, h.orchestrator, result.Problems)
	}

	text, err := h.advice.Advise(c.Request.Context(), input)
	if err != nil {
		log.WithError(err).Warn("Advice generation failed")
	}

	response := models.AdviceResponse{
		User:    user,
		Persona: request.Persona,
		Text:    text,
	}
	if text == "" {
		response.Text = services.FallbackAdvice
		response.Fallback = true
	}
	c.JSON(http.StatusOK, response)
}
