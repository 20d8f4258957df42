package editorial

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/pkg/models"
)

// DefaultCutoffEpoch is the start of ABC175. Older editorials use a different
// page layout.
const DefaultCutoffEpoch int64 = 1597492800

// PageSource is what the populator needs from the outside world.
type PageSource interface {
	atcoder.EditorialPageSource
	Contests(ctx context.Context) ([]models.Contest, error)
	Problems(ctx context.Context) ([]models.Problem, error)
}

// EventPublisher receives one event per processed problem.
type EventPublisher interface {
	PublishEditorialEvent(ctx context.Context, event models.EditorialEvent) error
}

// ScrapeObserver counts scrape outcomes.
type ScrapeObserver interface {
	ObserveScrape(outcome string)
}

// Report summarizes one populator run.
type Report struct {
	RunID       uuid.UUID
	Candidates  int
	Stored      int
	Unavailable int
	Failed      int
	Skipped     int
	Ineligible  int
}

// Populator fills the store with editorials of every eligible problem that
// has no entry yet, oldest contest first.
type Populator struct {
	source    PageSource
	store     *Store
	publisher EventPublisher
	observer  ScrapeObserver
	cutoff    int64
	logger    *logrus.Logger
}

func NewPopulator(source PageSource, store *Store, cutoff int64, logger *logrus.Logger) *Populator {
	return &Populator{
		source: source,
		store:  store,
		cutoff: cutoff,
		logger: logger,
	}
}

// WithPublisher sets the event publisher and returns p.
func (p *Populator) WithPublisher(publisher EventPublisher) *Populator {
	p.publisher = publisher
	return p
}

// WithObserver sets the outcome observer and returns p.
func (p *Populator) WithObserver(observer ScrapeObserver) *Populator {
	p.observer = observer
	return p
}

type candidate struct {
	problem models.Problem
	start   int64
}

// Run processes up to limit candidates (all when limit <= 0). Fetch failures
// are logged and left for a later run; only catalog and store failures abort.
func (p *Populator) Run(ctx context.Context, limit int) (*Report, error) {
	report := &Report{RunID: uuid.New()}

	problems, err := p.source.Problems(ctx)
	if err != nil {
		return report, fmt.Errorf("load problems: %w", err)
	}
	contests, err := p.source.Contests(ctx)
	if err != nil {
		return report, fmt.Errorf("load contests: %w", err)
	}

	// another process may have stored editorials since the store was opened
	if err := p.store.Refresh(); err != nil {
		return report, fmt.Errorf("refresh editorial store: %w", err)
	}

	candidates := p.selectCandidates(problems, contests, report)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	report.Candidates = len(candidates)

	log := p.logger.WithField("run_id", report.RunID)
	log.WithFields(logrus.Fields{
		"candidates": report.Candidates,
		"skipped":    report.Skipped,
		"ineligible": report.Ineligible,
	}).Info("Starting editorial scrape")

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, codes, err := p.process(ctx, c.problem)
		if err != nil {
			return report, err
		}

		switch outcome {
		case models.EditorialStored:
			report.Stored++
		case models.EditorialUnavailable:
			report.Unavailable++
		case models.EditorialFailed:
			report.Failed++
		}
		p.emit(ctx, report.RunID, c.problem, outcome, codes)

		log.WithFields(logrus.Fields{
			"contest":  c.problem.ContestID,
			"problem":  c.problem.ID,
			"outcome":  outcome,
			"progress": fmt.Sprintf("%.1f%% (%d/%d)", float64(i+1)*100/float64(len(candidates)), i+1, len(candidates)),
		}).Info("Editorial processed")
	}

	log.WithFields(logrus.Fields{
		"stored":      report.Stored,
		"unavailable": report.Unavailable,
		"failed":      report.Failed,
	}).Info("Editorial scrape finished")

	return report, nil
}

func (p *Populator) selectCandidates(problems []models.Problem, contests []models.Contest, report *Report) []candidate {
	starts := make(map[string]int64, len(contests))
	for _, c := range contests {
		starts[c.ID] = c.StartEpochSecond
	}

	seen := make(map[string]bool, len(problems))
	candidates := make([]candidate, 0)
	for _, problem := range problems {
		if seen[problem.ID] {
			continue
		}
		seen[problem.ID] = true

		if p.store.Has(problem.ID) {
			report.Skipped++
			continue
		}
		start, ok := starts[problem.ContestID]
		if !ok || start < p.cutoff {
			report.Ineligible++
			continue
		}
		candidates = append(candidates, candidate{problem: problem, start: start})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		return candidates[i].problem.ID < candidates[j].problem.ID
	})
	return candidates
}

// process fetches and stores one editorial. The returned error is non-nil only
// when the store could not be flushed.
func (p *Populator) process(ctx context.Context, problem models.Problem) (string, int, error) {
	log := p.logger.WithFields(logrus.Fields{
		"contest": problem.ContestID,
		"problem": problem.ID,
	})

	page, err := p.source.EditorialPage(ctx, problem.ContestID, problem.ID)
	if err != nil && !errors.Is(err, atcoder.ErrNotFound) {
		log.WithError(err).Warn("Editorial fetch failed, will retry on the next run")
		return models.EditorialFailed, 0, nil
	}

	var editorial *models.Editorial
	if err == nil {
		editorial, err = Extract(page)
		if err != nil {
			log.WithError(err).Warn("Editorial extraction failed, will retry on the next run")
			return models.EditorialFailed, 0, nil
		}
	}

	if err := p.store.Put(problem.ID, editorial); err != nil {
		return "", 0, fmt.Errorf("store editorial of %s: %w", problem.ID, err)
	}

	if editorial == nil {
		return models.EditorialUnavailable, 0, nil
	}
	return models.EditorialStored, len(editorial.Codes), nil
}

func (p *Populator) emit(ctx context.Context, runID uuid.UUID, problem models.Problem, outcome string, codes int) {
	if p.observer != nil {
		p.observer.ObserveScrape(outcome)
	}
	if p.publisher == nil {
		return
	}
	event := models.EditorialEvent{
		RunID:     runID.String(),
		ProblemID: problem.ID,
		ContestID: problem.ContestID,
		Outcome:   outcome,
		Codes:     codes,
		Timestamp: time.Now(),
	}
	if err := p.publisher.PublishEditorialEvent(ctx, event); err != nil {
		p.logger.WithError(err).WithField("problem", problem.ID).Warn("Failed to publish editorial event")
	}
}
