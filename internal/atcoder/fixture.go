package atcoder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/atcpro/atcpro/internal/validation"
	"github.com/atcpro/atcpro/pkg/models"
)

// Fixture file names inside a fixture directory.
const (
	FixtureContests      = "contests.json"
	FixtureProblems      = "merged-problems.json"
	FixtureProblemModels = "problem-models.json"
	FixtureSubmissions   = "submissions.json"
	FixtureHistory       = "history.html"
	FixtureEditorialDir  = "editorials"
)

// FixtureSource is a Source that reads every payload from a directory, for
// offline runs and deterministic tests. Payloads go through the same schema
// validation as live responses.
type FixtureSource struct {
	dir       string
	validator *validation.SchemaValidator
}

func NewFixtureSource(dir string, validator *validation.SchemaValidator) *FixtureSource {
	return &FixtureSource{dir: dir, validator: validator}
}

func (f *FixtureSource) Contests(ctx context.Context) ([]models.Contest, error) {
	var contests []models.Contest
	if err := f.decode(FixtureContests, validation.SchemaContests, &contests); err != nil {
		return nil, err
	}
	return contests, nil
}

func (f *FixtureSource) Problems(ctx context.Context) ([]models.Problem, error) {
	var problems []models.Problem
	if err := f.decode(FixtureProblems, validation.SchemaProblems, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (f *FixtureSource) ProblemModels(ctx context.Context) (models.DifficultyTable, error) {
	table := make(models.DifficultyTable)
	if err := f.decode(FixtureProblemModels, validation.SchemaProblemModels, &table); err != nil {
		return nil, err
	}
	return table, nil
}

func (f *FixtureSource) Submissions(ctx context.Context, user string, fromSecond int64) ([]models.Submission, error) {
	var all []models.Submission
	if err := f.decode(FixtureSubmissions, validation.SchemaSubmissions, &all); err != nil {
		return nil, err
	}

	submissions := make([]models.Submission, 0, len(all))
	for _, s := range all {
		if s.EpochSecond < fromSecond {
			continue
		}
		if s.UserID != "" && s.UserID != user {
			continue
		}
		submissions = append(submissions, s)
	}
	return submissions, nil
}

func (f *FixtureSource) History(ctx context.Context, user string, n int) ([]models.ContestHistoryEntry, error) {
	page, err := f.read(FixtureHistory)
	if err != nil {
		return nil, err
	}
	return ParseHistory(page, n)
}

func (f *FixtureSource) EditorialPage(ctx context.Context, contestID, problemID string) ([]byte, error) {
	return f.read(filepath.Join(FixtureEditorialDir, problemID+".html"))
}

func (f *FixtureSource) decode(name, schema string, v any) error {
	body, err := f.read(name)
	if err != nil {
		return err
	}
	if err := f.validator.DecodeInto(schema, body, v); err != nil {
		return fmt.Errorf("fixture %s: %w", name, err)
	}
	return nil
}

func (f *FixtureSource) read(name string) ([]byte, error) {
	body, err := os.ReadFile(filepath.Join(f.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("fixture %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", name, err)
	}
	return body, nil
}
