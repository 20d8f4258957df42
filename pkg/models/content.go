package models

import "time"

// Problem is a catalog entry from merged-problems.json.
type Problem struct {
	ID        string   `json:"id" validate:"required"`
	ContestID string   `json:"contest_id" validate:"required"`
	Name      string   `json:"name"`
	Title     string   `json:"title,omitempty"`
	Point     *float64 `json:"point,omitempty"`
}

// Contest is a catalog entry from contests.json.
type Contest struct {
	ID               string `json:"id" validate:"required"`
	StartEpochSecond int64  `json:"start_epoch_second"`
	DurationSecond   int64  `json:"duration_second"`
	Title            string `json:"title,omitempty"`
	RateChange       string `json:"rate_change,omitempty"`
}

// EndEpochSecond is the last second that still belongs to the contest.
func (c Contest) EndEpochSecond() int64 {
	return c.StartEpochSecond + c.DurationSecond
}

// ProblemModel is the estimated-difficulty record of a problem. Difficulty is
// nil for problems the model could not rate.
type ProblemModel struct {
	Slope          *float64 `json:"slope,omitempty"`
	Intercept      *float64 `json:"intercept,omitempty"`
	Variance       *float64 `json:"variance,omitempty"`
	Difficulty     *float64 `json:"difficulty"`
	Discrimination *float64 `json:"discrimination,omitempty"`
	IsExperimental bool     `json:"is_experimental,omitempty"`
}

// DifficultyTable maps problem ids to their difficulty record.
type DifficultyTable map[string]ProblemModel

// Editorial is the prose and code extracted from a problem's editorial page.
type Editorial struct {
	Text  string   `json:"text"`
	Codes []string `json:"codes"`
}

// ProblemURL returns the task page of a problem.
func ProblemURL(contestID, problemID string) string {
	if contestID == "" {
		return ""
	}
	return "https://atcoder.jp/contests/" + contestID + "/tasks/" + problemID
}

// Editorial scrape outcomes.
const (
	EditorialStored      = "stored"
	EditorialUnavailable = "unavailable"
	EditorialFailed      = "failed"
)

// EditorialEvent is emitted once per problem processed by a scrape run.
type EditorialEvent struct {
	RunID     string    `json:"run_id"`
	ProblemID string    `json:"problem_id"`
	ContestID string    `json:"contest_id"`
	Outcome   string    `json:"outcome"`
	Codes     int       `json:"codes"`
	Timestamp time.Time `json:"timestamp"`
}
