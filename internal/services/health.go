package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const healthCheckTimeout = 5 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CorpusSize reports how many problems the editorial store knows about.
type CorpusSize interface {
	Len() int
}

type HealthService struct {
	logger     *logrus.Logger
	metrics    *Metrics
	cache      Pinger
	store      CorpusSize
	sourceMode string
	events     bool
}

type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]string      `json:"services"`
	Critical    []string               `json:"critical_failures,omitempty"`
	NonCritical []string               `json:"non_critical_failures,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

var errEmptyCorpus = errors.New("editorial store is empty")

// NewHealthService creates a health service. sourceMode is reported as is
// ("live" or "fixture"); events tells whether editorial events are published.
func NewHealthService(logger *logrus.Logger, metrics *Metrics, cache Pinger, store CorpusSize, sourceMode string, events bool) *HealthService {
	return &HealthService{
		logger:     logger,
		metrics:    metrics,
		cache:      cache,
		store:      store,
		sourceMode: sourceMode,
		events:     events,
	}
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
		Details: map[string]interface{}{
			"source":     s.sourceMode,
			"editorials": s.store.Len(),
			"events":     s.events,
		},
	}

	// Critical dependencies
	criticalServices := map[string]func(context.Context) error{
		"cache": s.checkCache,
	}

	// Non-critical dependencies
	nonCriticalServices := map[string]func(context.Context) error{
		"editorial_store": s.checkEditorialStore,
	}

	allCriticalHealthy := true
	for name, check := range criticalServices {
		if err := s.run(ctx, check); err != nil {
			status.Services[name] = "unhealthy"
			status.Critical = append(status.Critical, name)
			allCriticalHealthy = false
			s.logger.WithError(err).Errorf("Critical service %s is unhealthy", name)
			s.metrics.ObserveHealth(name, false)
		} else {
			status.Services[name] = "healthy"
			s.metrics.ObserveHealth(name, true)
		}
	}

	for name, check := range nonCriticalServices {
		if err := s.run(ctx, check); err != nil {
			status.Services[name] = "unhealthy"
			status.NonCritical = append(status.NonCritical, name)
			s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", name)
			s.metrics.ObserveHealth(name, false)
		} else {
			status.Services[name] = "healthy"
			s.metrics.ObserveHealth(name, true)
		}
	}

	switch {
	case !allCriticalHealthy:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}
	return status
}

func (s *HealthService) run(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return check(ctx)
}

func (s *HealthService) checkCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

func (s *HealthService) checkEditorialStore(ctx context.Context) error {
	if s.store.Len() == 0 {
		return errEmptyCorpus
	}
	return nil
}
