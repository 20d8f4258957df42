package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atcpro/atcpro/pkg/models"
)

func TestLookupDifficulty(t *testing.T) {
	table := difficultyTable(map[string]float64{"A": 1000}, "N")

	assert.Equal(t, DifficultyLookup{Outcome: Found, Difficulty: 1000}, LookupDifficulty(table, "A"))
	assert.Equal(t, DifficultyUnknown, LookupDifficulty(table, "N").Outcome)
	assert.Equal(t, RecordAbsent, LookupDifficulty(table, "Z").Outcome)
	assert.Equal(t, RecordAbsent, LookupDifficulty(nil, "A").Outcome)
	assert.Equal(t, "record_absent", RecordAbsent.String())
}

func TestDifficultyReranker_Score(t *testing.T) {
	table := difficultyTable(map[string]float64{"A": 1000, "B": 1200, "C": 1400}, "N")
	r := NewDifficultyReranker(quietLogger())

	tests := []struct {
		name      string
		candidate string
		raw       float64
		target    string
		leastDiff int
		expected  float64
	}{
		{"losing streak makes B a perfect match", "B", 0.5, "A", -100, 0.5},
		{"losing streak gap for C", "C", 0.5, "A", -100, 0.5 - 200.0/3000},
		{"no correction after a gain", "B", 0.5, "A", 25, 0.5 - 200.0/3000},
		{"no correction at zero", "C", 0.5, "A", 0, 0.5 - 400.0/3000},
		{"equal difficulty keeps the raw score", "A", 0.7, "A", 10, 0.7},
		{"null candidate difficulty", "N", 0.99, "A", 0, SentinelScore},
		{"null target difficulty", "B", 0.99, "N", -5, SentinelScore},
		{"absent candidate record", "Z", 0.42, "A", -100, 0.42},
		{"absent target record", "B", 0.42, "Z", 0, 0.42},
		{"absent record wins over null difficulty", "Z", 0.3, "N", 0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Score(tt.candidate, tt.raw, tt.target, table, tt.leastDiff)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestDifficultyReranker_ScoreNeverExceedsRaw(t *testing.T) {
	table := difficultyTable(map[string]float64{"A": 1000, "B": 1200, "C": 1400, "D": 300})
	r := NewDifficultyReranker(quietLogger())

	for _, candidate := range []string{"B", "C", "D"} {
		for _, leastDiff := range []int{-30, 0, 30} {
			assert.Less(t, r.Score(candidate, 0.6, "A", table, leastDiff), 0.6+1e-12)
		}
		assert.Less(t, r.Score(candidate, 0.6, "A", table, 0), 0.6)
	}
}

func TestDifficultyReranker_Rerank(t *testing.T) {
	table := difficultyTable(map[string]float64{"A": 1000, "B": 1200, "C": 1400}, "N")
	r := NewDifficultyReranker(quietLogger())

	scores := []models.SimilarityScore{
		{ProblemID: "N", Score: 0.9},
		{ProblemID: "C", Score: 0.5},
		{ProblemID: "B", Score: 0.5},
		{ProblemID: "X", Score: 0.1},
	}

	result := r.Rerank("A", scores, table, -100, 3)

	require.Len(t, result, 3)
	assert.Equal(t, "B", result[0].ProblemID)
	assert.InDelta(t, 0.5, result[0].Score, 1e-12)
	assert.Equal(t, "C", result[1].ProblemID)
	assert.Equal(t, "X", result[2].ProblemID)
	assert.InDelta(t, 0.1, result[2].Score, 1e-12)

	// the input order is left alone
	assert.Equal(t, "N", scores[0].ProblemID)
	assert.Equal(t, 0.9, scores[0].Score)
}

func TestDifficultyReranker_RerankSentinelSortsLast(t *testing.T) {
	table := difficultyTable(map[string]float64{"A": 1000, "B": 2900}, "N")
	r := NewDifficultyReranker(quietLogger())

	result := r.Rerank("A", []models.SimilarityScore{
		{ProblemID: "N", Score: 1.0},
		{ProblemID: "B", Score: 0.0},
	}, table, 0, 0)

	require.Len(t, result, 2)
	assert.Equal(t, "B", result[0].ProblemID)
	assert.Equal(t, "N", result[1].ProblemID)
	assert.Equal(t, SentinelScore, result[1].Score)
}

func TestDifficultyReranker_RerankDefaultTopN(t *testing.T) {
	r := NewDifficultyReranker(quietLogger())
	scores := []models.SimilarityScore{
		{ProblemID: "p1", Score: 0.4},
		{ProblemID: "p2", Score: 0.3},
		{ProblemID: "p3", Score: 0.2},
		{ProblemID: "p4", Score: 0.1},
	}

	result := r.Rerank("t", scores, models.DifficultyTable{}, 0, 0)
	assert.Len(t, result, DefaultRerankTopN)
	assert.Empty(t, r.Rerank("t", nil, nil, 0, 3))
}
