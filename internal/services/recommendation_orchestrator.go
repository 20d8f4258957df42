package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/internal/ml"
	"github.com/atcpro/atcpro/pkg/models"
)

// EditorialCorpus provides the editorial texts the similarity engine ranks.
type EditorialCorpus interface {
	Corpus() map[string]*models.Editorial
}

// OrchestratorConfig tunes the recommendation pipeline.
type OrchestratorConfig struct {
	TopN         int
	HistoryCount int
	CatalogTTL   time.Duration
}

// Recommendation is the outcome of one recommendation run.
type Recommendation struct {
	User      string
	LeastDiff int
	Histories []models.ContestHistoryEntry
	Problems  []models.ProblemRecommendations
}

// catalogSnapshot is an indexed copy of the read-only catalogs.
type catalogSnapshot struct {
	contests  map[string]models.Contest
	problems  map[string]models.Problem
	table     models.DifficultyTable
	fetchedAt time.Time
}

// RecommendationOrchestrator turns a user's recent failures into practice
// candidates: failed problems are found from the submissions inside each
// recent contest window, then ranked by editorial similarity and re-ranked by
// difficulty.
type RecommendationOrchestrator struct {
	source   atcoder.Source
	corpus   EditorialCorpus
	engine   *ml.SimilarityEngine
	reranker *DifficultyReranker
	metrics  *Metrics
	config   OrchestratorConfig
	logger   *logrus.Logger

	mu      sync.Mutex
	catalog *catalogSnapshot
}

// NewRecommendationOrchestrator creates a new recommendation orchestrator
func NewRecommendationOrchestrator(
	source atcoder.Source,
	corpus EditorialCorpus,
	engine *ml.SimilarityEngine,
	reranker *DifficultyReranker,
	metrics *Metrics,
	config OrchestratorConfig,
	logger *logrus.Logger,
) *RecommendationOrchestrator {
	if config.TopN <= 0 {
		config.TopN = DefaultRerankTopN
	}
	if config.HistoryCount <= 0 {
		config.HistoryCount = 10
	}
	return &RecommendationOrchestrator{
		source:   source,
		corpus:   corpus,
		engine:   engine,
		reranker: reranker,
		metrics:  metrics,
		config:   config,
		logger:   logger,
	}
}

// Recommend builds one candidate list per distinct problem the user got WA or
// TLE on during the given contests. A nil histories slice fetches the most
// recent ones. External failures degrade the result instead of failing it;
// the only error returned is the context's.
func (o *RecommendationOrchestrator) Recommend(ctx context.Context, user string, histories []models.ContestHistoryEntry) (*Recommendation, error) {
	startTime := time.Now()
	log := o.logger.WithField("user", user)

	if histories == nil {
		fetched, err := o.Histories(ctx, user)
		if err != nil {
			log.WithError(err).Warn("Failed to fetch contest history, continuing without it")
		}
		histories = fetched
	}

	sorted := make([]models.ContestHistoryEntry, len(histories))
	copy(sorted, histories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	catalog := o.catalogSnapshot(ctx)
	failed := o.failedProblems(ctx, user, sorted, catalog)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	leastDiff := LeastDiff(sorted)
	corpus := o.corpus.Corpus()

	problems := make([]models.ProblemRecommendations, 0, len(failed))
	for _, problemID := range failed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ranked := o.engine.Rank(problemID, corpus, 0)
		problems = append(problems, models.ProblemRecommendations{
			ProblemID:  problemID,
			Candidates: o.reranker.Rerank(problemID, ranked, catalog.table, leastDiff, o.config.TopN),
		})
	}

	o.metrics.ObserveRecommendation(time.Since(startTime), len(failed))
	log.WithFields(logrus.Fields{
		"contests":   len(sorted),
		"failed":     len(failed),
		"least_diff": leastDiff,
		"duration":   time.Since(startTime),
	}).Info("Recommendations generated")

	return &Recommendation{
		User:      user,
		LeastDiff: leastDiff,
		Histories: sorted,
		Problems:  problems,
	}, nil
}

// Histories returns the user's most recent contest participations.
func (o *RecommendationOrchestrator) Histories(ctx context.Context, user string) ([]models.ContestHistoryEntry, error) {
	histories, err := o.source.History(ctx, user, o.config.HistoryCount)
	if err != nil {
		return []models.ContestHistoryEntry{}, err
	}
	return histories, nil
}

// Similar ranks practice candidates for a single problem.
func (o *RecommendationOrchestrator) Similar(ctx context.Context, problemID string, leastDiff, topN int) []models.SimilarityScore {
	if topN <= 0 {
		topN = o.config.TopN
	}
	catalog := o.catalogSnapshot(ctx)
	ranked := o.engine.Rank(problemID, o.corpus.Corpus(), 0)
	return o.reranker.Rerank(problemID, ranked, catalog.table, leastDiff, topN)
}

// Describe attaches display data to scored problems. Unknown difficulties
// render as 0.
func (o *RecommendationOrchestrator) Describe(ctx context.Context, scores []models.SimilarityScore) []models.RecommendedProblem {
	catalog := o.catalogSnapshot(ctx)

	described := make([]models.RecommendedProblem, 0, len(scores))
	for _, s := range scores {
		p := models.RecommendedProblem{
			ProblemID: s.ProblemID,
			Score:     s.Score,
		}
		if problem, ok := catalog.problems[s.ProblemID]; ok {
			p.Name = problem.Name
			p.URL = models.ProblemURL(problem.ContestID, problem.ID)
		}
		if lookup := LookupDifficulty(catalog.table, s.ProblemID); lookup.Outcome == Found {
			p.Difficulty = int(math.Round(lookup.Difficulty))
		}
		p.Color = models.RatingColor(p.Difficulty)
		described = append(described, p)
	}
	return described
}

// LeastDiff returns the rating change of the latest entry of histories sorted
// oldest first. Unrated or missing entries count as 0.
func LeastDiff(sorted []models.ContestHistoryEntry) int {
	if len(sorted) == 0 || sorted[len(sorted)-1].Diff == nil {
		return 0
	}
	return *sorted[len(sorted)-1].Diff
}

func (o *RecommendationOrchestrator) failedProblems(ctx context.Context, user string, histories []models.ContestHistoryEntry, catalog *catalogSnapshot) []string {
	cache := NewSubmissionWindowCache(o.source, user)
	seen := make(map[string]bool)
	failed := make([]string, 0)

	for _, history := range histories {
		if ctx.Err() != nil {
			break
		}
		contest, ok := catalog.contests[history.ContestID]
		if !ok {
			o.logger.WithFields(logrus.Fields{
				"user":    user,
				"contest": history.ContestID,
			}).Warn("Contest not in catalog, skipping")
			continue
		}

		start, end := contest.StartEpochSecond, contest.EndEpochSecond()
		submissions, err := cache.Window(ctx, contest.ID, start, end)
		if err != nil {
			o.logger.WithError(err).WithFields(logrus.Fields{
				"user":    user,
				"contest": contest.ID,
			}).Warn("Failed to fetch submissions, skipping contest")
			continue
		}

		for _, s := range submissions {
			if s.Result.IsFailure() && !seen[s.ProblemID] {
				seen[s.ProblemID] = true
				failed = append(failed, s.ProblemID)
			}
		}
	}

	o.logger.WithFields(logrus.Fields{
		"user":    user,
		"fetches": cache.Fetches(),
		"failed":  len(failed),
	}).Debug("Collected failed problems")
	return failed
}

// catalogSnapshot returns the cached catalogs, refreshing them once they are
// older than CatalogTTL. A failed refresh keeps the previous snapshot; with
// none, the affected catalog is empty.
func (o *RecommendationOrchestrator) catalogSnapshot(ctx context.Context) *catalogSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.catalog != nil && o.config.CatalogTTL > 0 && time.Since(o.catalog.fetchedAt) < o.config.CatalogTTL {
		return o.catalog
	}

	snapshot := &catalogSnapshot{
		contests:  make(map[string]models.Contest),
		problems:  make(map[string]models.Problem),
		table:     models.DifficultyTable{},
		fetchedAt: time.Now(),
	}
	complete := true

	if contests, err := o.source.Contests(ctx); err != nil {
		o.logger.WithError(err).Warn("Failed to load contests")
		complete = false
		if o.catalog != nil {
			snapshot.contests = o.catalog.contests
		}
	} else {
		for _, c := range contests {
			snapshot.contests[c.ID] = c
		}
	}

	if problems, err := o.source.Problems(ctx); err != nil {
		o.logger.WithError(err).Warn("Failed to load problems")
		complete = false
		if o.catalog != nil {
			snapshot.problems = o.catalog.problems
		}
	} else {
		for _, p := range problems {
			snapshot.problems[p.ID] = p
		}
	}

	if table, err := o.source.ProblemModels(ctx); err != nil {
		o.logger.WithError(err).Warn("Failed to load difficulties, similarity scores stay unadjusted")
		complete = false
		if o.catalog != nil {
			snapshot.table = o.catalog.table
		}
	} else if table != nil {
		snapshot.table = table
	}

	// only a complete snapshot is worth keeping for the full TTL
	if complete {
		o.catalog = snapshot
	}
	return snapshot
}
