package services

import (
	"context"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/pkg/models"
)

// SubmissionWindowCache holds the last batch of a user's submissions, fetched
// from a lower-bound epoch, so consecutive contests can share one fetch.
type SubmissionWindowCache struct {
	source  atcoder.UserSource
	user    string
	from    int64
	latest  int64
	batch   []models.Submission
	fetches int
}

func NewSubmissionWindowCache(source atcoder.UserSource, user string) *SubmissionWindowCache {
	return &SubmissionWindowCache{source: source, user: user}
}

// Covers reports whether the cached batch holds every submission in
// [start, end]: it must begin at or before start and reach at least end.
func (c *SubmissionWindowCache) Covers(start, end int64) bool {
	return len(c.batch) > 0 && c.from <= start && c.latest >= end
}

// Window returns the user's submissions to contestID within [start, end],
// refetching from start when the cached batch does not cover the range.
func (c *SubmissionWindowCache) Window(ctx context.Context, contestID string, start, end int64) ([]models.Submission, error) {
	if !c.Covers(start, end) {
		submissions, err := c.source.Submissions(ctx, c.user, start)
		if err != nil {
			return nil, err
		}
		c.fetches++
		c.from = start
		c.batch = submissions
		c.latest = 0
		for _, s := range submissions {
			if s.EpochSecond > c.latest {
				c.latest = s.EpochSecond
			}
		}
	}

	window := make([]models.Submission, 0)
	for _, s := range c.batch {
		if s.ContestID == contestID && s.EpochSecond >= start && s.EpochSecond <= end {
			window = append(window, s)
		}
	}
	return window, nil
}

// Fetches returns how many times the source was called.
func (c *SubmissionWindowCache) Fetches() int {
	return c.fetches
}
