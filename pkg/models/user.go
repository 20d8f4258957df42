package models

import "time"

// ResultCode is the judge verdict of a submission.
type ResultCode string

const (
	ResultAccepted            ResultCode = "AC"
	ResultWrongAnswer         ResultCode = "WA"
	ResultTimeLimitExceeded   ResultCode = "TLE"
	ResultMemoryLimitExceeded ResultCode = "MLE"
	ResultRuntimeError        ResultCode = "RE"
	ResultCompilationError    ResultCode = "CE"
	ResultOutputLimitExceeded ResultCode = "OLE"
	ResultInternalError       ResultCode = "IE"
	ResultWaitingForJudge     ResultCode = "WJ"
	ResultWaitingForRejudge   ResultCode = "WR"
	ResultJudging             ResultCode = "Judging"
)

// IsFailure reports whether the verdict makes the problem a practice target.
func (r ResultCode) IsFailure() bool {
	return r == ResultWrongAnswer || r == ResultTimeLimitExceeded
}

// Submission is a single user submission as returned by the submissions API.
type Submission struct {
	ID            int64      `json:"id"`
	EpochSecond   int64      `json:"epoch_second"`
	ProblemID     string     `json:"problem_id" validate:"required"`
	ContestID     string     `json:"contest_id" validate:"required"`
	UserID        string     `json:"user_id"`
	Language      string     `json:"language"`
	Point         float64    `json:"point"`
	Length        int        `json:"length"`
	Result        ResultCode `json:"result" validate:"required"`
	ExecutionTime *int       `json:"execution_time"`
}

// ContestHistoryEntry is one row of a user's contest history. Rating and Diff
// are nil for unrated participations.
type ContestHistoryEntry struct {
	Date        time.Time `json:"date"`
	ContestID   string    `json:"contest_id"`
	Rank        string    `json:"rank"`
	Performance string    `json:"performance"`
	Rating      *int      `json:"rating"`
	Diff        *int      `json:"diff"`
}
