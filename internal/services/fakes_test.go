package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/pkg/models"
)

// fakeSource serves canned catalogs and filters submissions the way the live
// API does.
type fakeSource struct {
	contests    []models.Contest
	problems    []models.Problem
	table       models.DifficultyTable
	histories   []models.ContestHistoryEntry
	submissions []models.Submission

	submissionsErr error
	catalogErr     error

	submissionCalls []int64
	historyCalls    int
	contestCalls    int
}

func (f *fakeSource) Contests(ctx context.Context) ([]models.Contest, error) {
	f.contestCalls++
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.contests, nil
}

func (f *fakeSource) Problems(ctx context.Context) ([]models.Problem, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.problems, nil
}

func (f *fakeSource) ProblemModels(ctx context.Context) (models.DifficultyTable, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.table, nil
}

func (f *fakeSource) History(ctx context.Context, user string, n int) ([]models.ContestHistoryEntry, error) {
	f.historyCalls++
	if len(f.histories) > n {
		return f.histories[:n], nil
	}
	return f.histories, nil
}

func (f *fakeSource) Submissions(ctx context.Context, user string, fromSecond int64) ([]models.Submission, error) {
	f.submissionCalls = append(f.submissionCalls, fromSecond)
	if f.submissionsErr != nil {
		return nil, f.submissionsErr
	}
	out := make([]models.Submission, 0)
	for _, s := range f.submissions {
		if s.EpochSecond >= fromSecond {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSource) EditorialPage(ctx context.Context, contestID, problemID string) ([]byte, error) {
	return nil, atcoder.ErrNotFound
}

var _ atcoder.Source = (*fakeSource)(nil)

type staticCorpus map[string]*models.Editorial

func (c staticCorpus) Corpus() map[string]*models.Editorial { return c }

var errUpstream = errors.New("upstream unavailable")

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func difficultyTable(known map[string]float64, unknown ...string) models.DifficultyTable {
	table := models.DifficultyTable{}
	for id, d := range known {
		table[id] = models.ProblemModel{Difficulty: floatPtr(d)}
	}
	for _, id := range unknown {
		table[id] = models.ProblemModel{}
	}
	return table
}
