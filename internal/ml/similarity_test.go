package ml

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atcpro/atcpro/pkg/models"
)

func newTestEngine() *SimilarityEngine {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewSimilarityEngine(logger)
}

func editorial(text string) *models.Editorial {
	return &models.Editorial{Text: text, Codes: []string{}}
}

func TestRank_SharedVocabularyRanksFirst(t *testing.T) {
	corpus := map[string]*models.Editorial{
		"A": editorial("binary search on the answer with a monotone predicate"),
		"B": editorial("use binary search because the predicate is monotone\nin the answer"),
		"C": editorial("knapsack dynamic programming over weights"),
	}

	result := newTestEngine().Rank("A", corpus, 2)

	require.Len(t, result, 2)
	assert.Equal(t, "B", result[0].ProblemID)
	assert.Equal(t, "C", result[1].ProblemID)
	assert.Greater(t, result[0].Score, result[1].Score)
}

func TestRank_MissingTargetEditorial(t *testing.T) {
	corpus := map[string]*models.Editorial{
		"A": nil,
		"B": editorial("greedy"),
	}
	engine := newTestEngine()

	assert.Empty(t, engine.Rank("A", corpus, 3))
	assert.Empty(t, engine.Rank("Z", corpus, 3))
}

func TestRank_NoCandidates(t *testing.T) {
	corpus := map[string]*models.Editorial{
		"A": editorial("prefix sums"),
		"B": nil,
	}

	assert.Empty(t, newTestEngine().Rank("A", corpus, 3))
}

func TestRank_Properties(t *testing.T) {
	words := []string{"graph", "tree", "dfs", "bfs", "segment", "modulo", "prime", "sieve", "bitmask", "dp"}
	corpus := make(map[string]*models.Editorial)
	for i := 0; i < 20; i++ {
		text := fmt.Sprintf("%s %s\n%s", words[i%10], words[(i*3)%10], words[(i*7+1)%10])
		corpus[fmt.Sprintf("p%02d", i)] = editorial(text)
	}
	corpus["nil_entry"] = nil

	result := newTestEngine().Rank("p05", corpus, 0)

	// everything but the target and the missing editorial
	assert.Len(t, result, 19)
	for i, s := range result {
		assert.NotEqual(t, "p05", s.ProblemID)
		assert.NotEqual(t, "nil_entry", s.ProblemID)
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
		if i > 0 {
			prev := result[i-1]
			assert.True(t, prev.Score > s.Score || (prev.Score == s.Score && prev.ProblemID < s.ProblemID))
		}
	}
}

func TestRank_OutOfVocabularyTargetScoresZero(t *testing.T) {
	corpus := map[string]*models.Editorial{
		"T": editorial("entirely novel wording"),
		"X": editorial("matrix exponentiation"),
		"Y": editorial("convex hull trick"),
	}

	result := newTestEngine().Rank("T", corpus, 5)

	require.Len(t, result, 2)
	assert.Equal(t, "X", result[0].ProblemID)
	assert.Equal(t, 0.0, result[0].Score)
	assert.Equal(t, 0.0, result[1].Score)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "line one line two", NormalizeText("  line one\nline two\n"))
	assert.Equal(t, "a b", NormalizeText("a\r\nb"))
}
