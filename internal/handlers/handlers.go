package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Advice         *AdviceHandler
	Editorial      *EditorialHandler
}

func New(logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Recommendation: NewRecommendationHandler(services.RecommendationOrchestrator, logger),
		Advice:         NewAdviceHandler(services.RecommendationOrchestrator, services.Advice, logger),
		Editorial:      NewEditorialHandler(services.Populator, logger),
	}
}
