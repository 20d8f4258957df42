package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/internal/editorial"
	"github.com/atcpro/atcpro/internal/services"
	"github.com/atcpro/atcpro/pkg/models"
)

// MockRecommendationOrchestrator is a mock implementation
type MockRecommendationOrchestrator struct {
	mock.Mock
}

func (m *MockRecommendationOrchestrator) Recommend(ctx context.Context, user string, histories []models.ContestHistoryEntry) (*services.Recommendation, error) {
	args := m.Called(ctx, user, histories)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Recommendation), args.Error(1)
}

func (m *MockRecommendationOrchestrator) Histories(ctx context.Context, user string) ([]models.ContestHistoryEntry, error) {
	args := m.Called(ctx, user)
	return args.Get(0).([]models.ContestHistoryEntry), args.Error(1)
}

func (m *MockRecommendationOrchestrator) Similar(ctx context.Context, problemID string, leastDiff, topN int) []models.SimilarityScore {
	args := m.Called(ctx, problemID, leastDiff, topN)
	return args.Get(0).([]models.SimilarityScore)
}

func (m *MockRecommendationOrchestrator) Describe(ctx context.Context, scores []models.SimilarityScore) []models.RecommendedProblem {
	described := make([]models.RecommendedProblem, 0, len(scores))
	for _, s := range scores {
		described = append(described, models.RecommendedProblem{
			ProblemID: s.ProblemID,
			Score:     s.Score,
			Color:     models.ColorGray,
		})
	}
	return described
}

type MockAdviceService struct {
	mock.Mock
}

func (m *MockAdviceService) Advise(ctx context.Context, input services.AdviceInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

type MockPopulator struct {
	mock.Mock
}

func (m *MockPopulator) Run(ctx context.Context, limit int) (*editorial.Report, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*editorial.Report), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func sampleRecommendation() *services.Recommendation {
	return &services.Recommendation{
		User:      "alice",
		LeastDiff: -12,
		Problems: []models.ProblemRecommendations{
			{ProblemID: "abc300_c", Candidates: []models.SimilarityScore{
				{ProblemID: "abc250_c", Score: 0.61},
				{ProblemID: "abc260_c", Score: 0.42},
			}},
		},
	}
}

func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/v1/users/:user/recommendations", h.Recommendation.Get)
	router.GET("/api/v1/users/:user/history", h.Recommendation.History)
	router.POST("/api/v1/users/:user/advice", h.Advice.Create)
	router.GET("/api/v1/problems/:problemId/similar", h.Recommendation.Similar)
	router.POST("/api/v1/editorials/scrape", h.Editorial.Scrape)
	return router
}

func newTestHandlers(o *MockRecommendationOrchestrator, a *MockAdviceService, p *MockPopulator) *Handlers {
	logger := testLogger()
	return &Handlers{
		Recommendation: NewRecommendationHandler(o, logger),
		Advice:         NewAdviceHandler(o, a, logger),
		Editorial:      NewEditorialHandler(p, logger),
	}
}

func TestRecommendationHandler_Get(t *testing.T) {
	orchestrator := new(MockRecommendationOrchestrator)
	orchestrator.On("Recommend", mock.Anything, "alice", []models.ContestHistoryEntry(nil)).Return(sampleRecommendation(), nil)
	router := newRouter(newTestHandlers(orchestrator, nil, nil))

	tests := []struct {
		name           string
		user           string
		expectedStatus int
	}{
		{"valid user", "alice", http.StatusOK},
		{"too short", "al", http.StatusBadRequest},
		{"invalid characters", "ali-ce", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/users/"+tt.user+"/recommendations", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response models.RecommendationResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, "alice", response.User)
				assert.Equal(t, -12, response.LeastDiff)
				require.Len(t, response.Problems, 1)
				assert.Equal(t, "abc300_c", response.Problems[0].ProblemID)
				require.Len(t, response.Problems[0].Recommendations, 2)
				assert.Equal(t, "abc250_c", response.Problems[0].Recommendations[0].ProblemID)
			}
		})
	}

	orchestrator.AssertNumberOfCalls(t, "Recommend", 1)
}

func TestRecommendationHandler_GetCancelled(t *testing.T) {
	orchestrator := new(MockRecommendationOrchestrator)
	orchestrator.On("Recommend", mock.Anything, "alice", mock.Anything).Return(nil, context.Canceled)
	router := newRouter(newTestHandlers(orchestrator, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/users/alice/recommendations", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecommendationHandler_History(t *testing.T) {
	orchestrator := new(MockRecommendationOrchestrator)
	rating := 810
	orchestrator.On("Histories", mock.Anything, "alice").Return([]models.ContestHistoryEntry{
		{ContestID: "abc298", Rank: "2000", Performance: "900", Rating: &rating},
	}, nil)
	orchestrator.On("Histories", mock.Anything, "ghost").Return([]models.ContestHistoryEntry{}, fmt.Errorf("history: %w", atcoder.ErrNotFound))
	orchestrator.On("Histories", mock.Anything, "flaky").Return([]models.ContestHistoryEntry{}, errors.New("timeout"))
	router := newRouter(newTestHandlers(orchestrator, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/users/alice/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var response models.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Histories, 1)
	assert.Equal(t, 810, *response.Histories[0].Rating)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/users/ghost/history", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "USER_NOT_FOUND")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/users/flaky/history", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRecommendationHandler_Similar(t *testing.T) {
	orchestrator := new(MockRecommendationOrchestrator)
	orchestrator.On("Similar", mock.Anything, "abc300_c", -5, 2).Return([]models.SimilarityScore{
		{ProblemID: "abc250_c", Score: 0.5},
	})
	orchestrator.On("Similar", mock.Anything, "abc300_c", 0, 0).Return([]models.SimilarityScore{})
	router := newRouter(newTestHandlers(orchestrator, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/problems/abc300_c/similar?least_diff=-5&top_n=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var response models.SimilarProblemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Recommendations, 1)
	assert.Equal(t, "abc250_c", response.Recommendations[0].ProblemID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/problems/abc300_c/similar", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recommendations":[]`)

	for _, query := range []string{"least_diff=abc", "top_n=0", "top_n=99"} {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/problems/abc300_c/similar?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestAdviceHandler_Create(t *testing.T) {
	orchestrator := new(MockRecommendationOrchestrator)
	orchestrator.On("Recommend", mock.Anything, "alice", mock.Anything).Return(sampleRecommendation(), nil)

	advice := new(MockAdviceService)
	advice.On("Advise", mock.Anything, mock.MatchedBy(func(in services.AdviceInput) bool {
		return in.Persona == "father" && len(in.Problems) == 1
	})).Return("その調子で頑張れ", nil)
	advice.On("Advise", mock.Anything, mock.MatchedBy(func(in services.AdviceInput) bool {
		return in.Persona == services.DefaultPersona
	})).Return("", errors.New("quota exceeded"))

	router := newRouter(newTestHandlers(orchestrator, advice, nil))

	tests := []struct {
		name             string
		body             string
		expectedStatus   int
		expectedText     string
		expectedFallback bool
	}{
		{"generated", `{"persona": "father"}`, http.StatusOK, "その調子で頑張れ", false},
		{"default persona falls back on failure", ``, http.StatusOK, services.FallbackAdvice, true},
		{"unknown persona", `{"persona": "uncle"}`, http.StatusBadRequest, "", false},
		{"broken json", `{"persona":`, http.StatusBadRequest, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/users/alice/advice", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var response models.AdviceResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.expectedText, response.Text)
			assert.Equal(t, tt.expectedFallback, response.Fallback)
		})
	}
}

func TestEditorialHandler_Scrape(t *testing.T) {
	populator := new(MockPopulator)
	runID := uuid.New()
	populator.On("Run", mock.Anything, 5).Return(&editorial.Report{
		RunID: runID, Candidates: 5, Stored: 3, Unavailable: 1, Failed: 1, Skipped: 40, Ineligible: 900,
	}, nil)
	populator.On("Run", mock.Anything, 0).Return(nil, errors.New("load problems: connection refused"))
	router := newRouter(newTestHandlers(nil, nil, populator))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/editorials/scrape?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var response models.ScrapeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, runID.String(), response.RunID)
	assert.Equal(t, 3, response.Stored)
	assert.Equal(t, 900, response.Ineligible)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/editorials/scrape", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/editorials/scrape?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
