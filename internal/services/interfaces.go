package services

import (
	"context"

	"github.com/atcpro/atcpro/internal/editorial"
	"github.com/atcpro/atcpro/pkg/models"
)

// RecommendationOrchestratorInterface defines the interface for recommendation orchestration
type RecommendationOrchestratorInterface interface {
	Recommend(ctx context.Context, user string, histories []models.ContestHistoryEntry) (*Recommendation, error)
	Histories(ctx context.Context, user string) ([]models.ContestHistoryEntry, error)
	Similar(ctx context.Context, problemID string, leastDiff, topN int) []models.SimilarityScore
	Describe(ctx context.Context, scores []models.SimilarityScore) []models.RecommendedProblem
}

// AdviceServiceInterface defines the interface for advice generation
type AdviceServiceInterface interface {
	Advise(ctx context.Context, input AdviceInput) (string, error)
}

// EditorialPopulatorInterface defines the interface for editorial scraping runs
type EditorialPopulatorInterface interface {
	Run(ctx context.Context, limit int) (*editorial.Report, error)
}

var (
	_ RecommendationOrchestratorInterface = (*RecommendationOrchestrator)(nil)
	_ AdviceServiceInterface              = (*AdviceService)(nil)
	_ EditorialPopulatorInterface         = (*editorial.Populator)(nil)
)
