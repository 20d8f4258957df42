package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/internal/services"
	"github.com/atcpro/atcpro/pkg/models"
)

type RecommendationHandler struct {
	orchestrator services.RecommendationOrchestratorInterface
	logger       *logrus.Logger
}

func NewRecommendationHandler(
	orchestrator services.RecommendationOrchestratorInterface,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Get returns practice candidates for every problem the user failed in
// recent contests.
func (h *RecommendationHandler) Get(c *gin.Context) {
	user, ok := userParam(c)
	if !ok {
		return
	}

	result, err := h.orchestrator.Recommend(c.Request.Context(), user, nil)
	if err != nil {
		h.logger.WithError(err).WithField("user", user).Warn("Recommendation aborted")
		respondError(c, http.StatusServiceUnavailable, "RECOMMENDATION_ABORTED", "Recommendation was cancelled")
		return
	}

	c.JSON(http.StatusOK, models.RecommendationResponse{
		User:        result.User,
		LeastDiff:   result.LeastDiff,
		Problems:    describeAll(c, h.orchestrator, result.Problems),
		GeneratedAt: time.Now().UTC(),
	})
}

// History returns the user's most recent contest results.
func (h *RecommendationHandler) History(c *gin.Context) {
	user, ok := userParam(c)
	if !ok {
		return
	}

	histories, err := h.orchestrator.Histories(c.Request.Context(), user)
	if errors.Is(err, atcoder.ErrNotFound) {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "No contest history for this user")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("user", user).Error("Failed to fetch contest history")
		respondError(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Contest history is unavailable right now")
		return
	}

	c.JSON(http.StatusOK, models.HistoryResponse{
		User:      user,
		Histories: histories,
	})
}

// Similar ranks practice candidates for a single problem.
func (h *RecommendationHandler) Similar(c *gin.Context) {
	problemID := c.Param("problemId")

	leastDiff := 0
	if s := c.Query("least_diff"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_LEAST_DIFF", "least_diff must be an integer")
			return
		}
		leastDiff = v
	}

	topN := 0
	if s := c.Query("top_n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 50 {
			respondError(c, http.StatusBadRequest, "INVALID_TOP_N", "top_n must be between 1 and 50")
			return
		}
		topN = v
	}

	scores := h.orchestrator.Similar(c.Request.Context(), problemID, leastDiff, topN)

	c.JSON(http.StatusOK, models.SimilarProblemsResponse{
		ProblemID:       problemID,
		Recommendations: h.orchestrator.Describe(c.Request.Context(), scores),
		GeneratedAt:     time.Now().UTC(),
	})
}

func describeAll(c *gin.Context, orchestrator services.RecommendationOrchestratorInterface, problems []models.ProblemRecommendations) []models.FailedProblemRecommendations {
	described := make([]models.FailedProblemRecommendations, 0, len(problems))
	for _, p := range problems {
		described = append(described, models.FailedProblemRecommendations{
			ProblemID:       p.ProblemID,
			Recommendations: orchestrator.Describe(c.Request.Context(), p.Candidates),
		})
	}
	return described
}
