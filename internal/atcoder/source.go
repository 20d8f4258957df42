// Package atcoder provides the external data sources the recommender reads:
// the problem/contest/difficulty catalogs, user history and submissions, and
// editorial pages. Source has a live implementation backed by HTTP and a
// fixture implementation backed by a directory of files.
package atcoder

import (
	"context"
	"errors"
	"time"

	"github.com/atcpro/atcpro/pkg/models"
)

// ErrNotFound marks data that is structurally absent (missing page, missing
// editorial link). Callers treat it as permanent, not as a retryable failure.
var ErrNotFound = errors.New("atcoder: not found")

// Catalog serves the wholesale, read-only problem catalogs.
type Catalog interface {
	Contests(ctx context.Context) ([]models.Contest, error)
	Problems(ctx context.Context) ([]models.Problem, error)
	ProblemModels(ctx context.Context) (models.DifficultyTable, error)
}

// UserSource serves per-user data.
type UserSource interface {
	// History returns up to n most recent contest participations, most recent first.
	History(ctx context.Context, user string, n int) ([]models.ContestHistoryEntry, error)
	// Submissions returns every submission at or after fromSecond. Callers
	// filter to contest windows themselves.
	Submissions(ctx context.Context, user string, fromSecond int64) ([]models.Submission, error)
}

// EditorialPageSource serves raw editorial markup.
type EditorialPageSource interface {
	// EditorialPage returns the markup of the first editorial of a problem,
	// or ErrNotFound when the problem has none.
	EditorialPage(ctx context.Context, contestID, problemID string) ([]byte, error)
}

// Source bundles every external interface the recommender consumes.
type Source interface {
	Catalog
	UserSource
	EditorialPageSource
}

// ResponseCache stores raw catalog payloads between runs.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RequestObserver receives one observation per external call.
type RequestObserver interface {
	ObserveRequest(source, outcome string, duration time.Duration)
}
