package services

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/pkg/models"
)

const (
	// SentinelScore sorts a candidate below anything with a known difficulty.
	SentinelScore = -1000.0

	// DefaultRerankTopN is the number of candidates kept per failed problem.
	DefaultRerankTopN = 3

	losingStreakCorrection = 200.0
	difficultyScale        = 3000.0
)

// LookupOutcome tells the two kinds of missing difficulty apart.
type LookupOutcome int

const (
	Found LookupOutcome = iota
	// DifficultyUnknown means the record exists but carries no difficulty.
	DifficultyUnknown
	// RecordAbsent means the problem has no record in the table at all.
	RecordAbsent
)

func (o LookupOutcome) String() string {
	switch o {
	case Found:
		return "found"
	case DifficultyUnknown:
		return "difficulty_unknown"
	case RecordAbsent:
		return "record_absent"
	default:
		return "unknown"
	}
}

// DifficultyLookup is the result of reading one problem's difficulty.
type DifficultyLookup struct {
	Outcome    LookupOutcome
	Difficulty float64
}

// LookupDifficulty reads problemID from table.
func LookupDifficulty(table models.DifficultyTable, problemID string) DifficultyLookup {
	model, ok := table[problemID]
	if !ok {
		return DifficultyLookup{Outcome: RecordAbsent}
	}
	if model.Difficulty == nil {
		return DifficultyLookup{Outcome: DifficultyUnknown}
	}
	return DifficultyLookup{Outcome: Found, Difficulty: *model.Difficulty}
}

// DifficultyReranker adjusts raw similarity by the difficulty gap between a
// candidate and the problem the user failed.
type DifficultyReranker struct {
	logger *logrus.Logger
}

func NewDifficultyReranker(logger *logrus.Logger) *DifficultyReranker {
	return &DifficultyReranker{logger: logger}
}

// Score returns the adjusted score of one candidate.
//
// A missing record on either side keeps the raw score. A record without a
// difficulty on either side yields SentinelScore. Otherwise the score drops by
// the difficulty gap over 3000, where a negative leastDiff (the user's last
// rating change) makes candidates look 200 points easier.
func (r *DifficultyReranker) Score(candidateID string, raw float64, targetID string, table models.DifficultyTable, leastDiff int) float64 {
	candidate := LookupDifficulty(table, candidateID)
	target := LookupDifficulty(table, targetID)

	// absent records win over null difficulties, so a candidate that lacks a
	// record entirely is never pushed to the bottom
	if candidate.Outcome == RecordAbsent || target.Outcome == RecordAbsent {
		r.logger.WithFields(logrus.Fields{
			"candidate": candidateID,
			"target":    targetID,
		}).Debug("Difficulty record missing, keeping raw score")
		return raw
	}
	if candidate.Outcome == DifficultyUnknown || target.Outcome == DifficultyUnknown {
		return SentinelScore
	}

	correction := 0.0
	if leastDiff < 0 {
		correction = losingStreakCorrection
	}
	return raw - math.Abs((candidate.Difficulty-correction)-target.Difficulty)/difficultyScale
}

// Rerank rescores every candidate, sorts them best first (stable, so equal
// scores keep their similarity order) and keeps topN. topN <= 0 uses
// DefaultRerankTopN.
func (r *DifficultyReranker) Rerank(targetID string, scores []models.SimilarityScore, table models.DifficultyTable, leastDiff, topN int) []models.SimilarityScore {
	if topN <= 0 {
		topN = DefaultRerankTopN
	}

	adjusted := make([]models.SimilarityScore, len(scores))
	for i, s := range scores {
		adjusted[i] = models.SimilarityScore{
			ProblemID: s.ProblemID,
			Score:     r.Score(s.ProblemID, s.Score, targetID, table, leastDiff),
		}
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].Score > adjusted[j].Score
	})
	if len(adjusted) > topN {
		adjusted = adjusted[:topN]
	}
	return adjusted
}
