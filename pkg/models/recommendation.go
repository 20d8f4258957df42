package models

import "time"

// SimilarityScore pairs a candidate problem with its score. Scores are raw
// cosine similarities before re-ranking and may go negative afterwards.
type SimilarityScore struct {
	ProblemID string  `json:"problem_id"`
	Score     float64 `json:"score"`
}

// ProblemRecommendations holds the ranked practice candidates for one failed
// problem.
type ProblemRecommendations struct {
	ProblemID  string            `json:"problem_id"`
	Candidates []SimilarityScore `json:"candidates"`
}

// RecommendedProblem is a candidate enriched for display.
type RecommendedProblem struct {
	ProblemID  string  `json:"problem_id"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	Difficulty int     `json:"difficulty"`
	Color      string  `json:"color"`
	URL        string  `json:"url"`
}

type FailedProblemRecommendations struct {
	ProblemID       string               `json:"problem_id"`
	Recommendations []RecommendedProblem `json:"recommendations"`
}

type RecommendationResponse struct {
	User        string                         `json:"user"`
	LeastDiff   int                            `json:"least_diff"`
	Problems    []FailedProblemRecommendations `json:"problems"`
	GeneratedAt time.Time                      `json:"generated_at"`
}

type SimilarProblemsResponse struct {
	ProblemID       string               `json:"problem_id"`
	Recommendations []RecommendedProblem `json:"recommendations"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

type HistoryResponse struct {
	User      string                `json:"user"`
	Histories []ContestHistoryEntry `json:"histories"`
}

type AdviceRequest struct {
	Persona string `json:"persona" validate:"omitempty,oneof=grandmother grandfather mother father elder_sister elder_brother younger_sister younger_brother"`
}

type AdviceResponse struct {
	User     string `json:"user"`
	Persona  string `json:"persona"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

type ScrapeResponse struct {
	RunID       string `json:"run_id"`
	Candidates  int    `json:"candidates"`
	Stored      int    `json:"stored"`
	Unavailable int    `json:"unavailable"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
	Ineligible  int    `json:"ineligible"`
}
