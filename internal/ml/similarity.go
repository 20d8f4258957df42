package ml

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/pkg/models"
)

// SimilarityEngine ranks editorials by textual similarity to a target.
type SimilarityEngine struct {
	logger *logrus.Logger
}

func NewSimilarityEngine(logger *logrus.Logger) *SimilarityEngine {
	return &SimilarityEngine{logger: logger}
}

// Rank scores every other editorial in corpus against the one of targetID and
// returns at most topN results, best first. topN <= 0 returns all of them.
//
// The vectorizer is fitted on the candidates only; the target is projected
// into their vocabulary. A target with no editorial yields an empty result.
func (e *SimilarityEngine) Rank(targetID string, corpus map[string]*models.Editorial, topN int) []models.SimilarityScore {
	target, ok := corpus[targetID]
	if !ok || target == nil {
		e.logger.WithField("problem", targetID).Debug("No editorial for target problem")
		return []models.SimilarityScore{}
	}

	ids := make([]string, 0, len(corpus))
	for id, editorial := range corpus {
		if id == targetID || editorial == nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []models.SimilarityScore{}
	}
	sort.Strings(ids)

	documents := make([]string, len(ids))
	for i, id := range ids {
		documents[i] = NormalizeText(corpus[id].Text)
	}

	vectorizer := &Vectorizer{}
	rows := vectorizer.FitTransform(documents)
	targetVec := vectorizer.Transform(NormalizeText(target.Text))

	scores := make([]models.SimilarityScore, len(ids))
	for i, id := range ids {
		scores[i] = models.SimilarityScore{
			ProblemID: id,
			Score:     CosineSimilarity(targetVec, rows[i]),
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if topN > 0 && len(scores) > topN {
		scores = scores[:topN]
	}

	e.logger.WithFields(logrus.Fields{
		"problem":    targetID,
		"candidates": len(ids),
		"vocabulary": vectorizer.VocabularySize(),
		"returned":   len(scores),
	}).Debug("Ranked editorials")

	return scores
}

// NormalizeText collapses line breaks into single spaces and trims the result.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
