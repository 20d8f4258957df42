package services

import (
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/internal/config"
	"github.com/atcpro/atcpro/internal/database"
	"github.com/atcpro/atcpro/internal/editorial"
	"github.com/atcpro/atcpro/internal/messaging"
	"github.com/atcpro/atcpro/internal/ml"
)

type Services struct {
	Health                     *HealthService
	Metrics                    *Metrics
	EventBus                   *messaging.EventBus
	Editorials                 *editorial.Store
	Populator                  *editorial.Populator
	Similarity                 *ml.SimilarityEngine
	Reranker                   *DifficultyReranker
	RecommendationOrchestrator *RecommendationOrchestrator
	Advice                     *AdviceService
}

func New(
	cfg *config.Config,
	logger *logrus.Logger,
	db *database.Database,
	source atcoder.Source,
	store *editorial.Store,
	bus *messaging.EventBus,
	metrics *Metrics,
) *Services {
	sourceMode := "live"
	if _, ok := source.(*atcoder.FixtureSource); ok {
		sourceMode = "fixture"
	}

	healthService := NewHealthService(logger, metrics, db, store, sourceMode, bus.Enabled())

	populator := editorial.NewPopulator(source, store, cfg.Editorial.CutoffEpoch, logger).
		WithPublisher(bus).
		WithObserver(metrics)

	// Initialize recommendation services
	similarity := ml.NewSimilarityEngine(logger)
	reranker := NewDifficultyReranker(logger)
	orchestrator := NewRecommendationOrchestrator(
		source, store, similarity, reranker, metrics,
		OrchestratorConfig{
			TopN:         cfg.Recommendation.TopN,
			HistoryCount: cfg.Recommendation.HistoryCount,
			CatalogTTL:   cfg.Recommendation.CatalogTTL,
		},
		logger,
	)

	return &Services{
		Health:                     healthService,
		Metrics:                    metrics,
		EventBus:                   bus,
		Editorials:                 store,
		Populator:                  populator,
		Similarity:                 similarity,
		Reranker:                   reranker,
		RecommendationOrchestrator: orchestrator,
		Advice:                     NewAdviceService(cfg.Advice, metrics, logger),
	}
}
