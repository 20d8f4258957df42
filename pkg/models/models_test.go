package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingColor(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{-50, ColorGray},
		{0, ColorGray},
		{399, ColorGray},
		{400, ColorBrown},
		{799, ColorBrown},
		{800, ColorGreen},
		{1200, ColorCyan},
		{1600, ColorBlue},
		{2000, ColorYellow},
		{2400, ColorOrange},
		{2799, ColorOrange},
		{2800, ColorRed},
		{4000, ColorRed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RatingColor(tt.rating), "rating %d", tt.rating)
	}
}

func TestResultCode_IsFailure(t *testing.T) {
	assert.True(t, ResultWrongAnswer.IsFailure())
	assert.True(t, ResultTimeLimitExceeded.IsFailure())

	for _, r := range []ResultCode{
		ResultAccepted, ResultMemoryLimitExceeded, ResultRuntimeError,
		ResultCompilationError, ResultOutputLimitExceeded, ResultInternalError,
		ResultWaitingForJudge, ResultWaitingForRejudge, ResultJudging,
	} {
		assert.False(t, r.IsFailure(), string(r))
	}
}

func TestProblemURL(t *testing.T) {
	assert.Equal(t, "https://atcoder.jp/contests/abc175/tasks/abc175_a", ProblemURL("abc175", "abc175_a"))
	assert.Empty(t, ProblemURL("", "abc175_a"))
}

func TestContest_EndEpochSecond(t *testing.T) {
	c := Contest{ID: "abc175", StartEpochSecond: 1597492800, DurationSecond: 6000}
	assert.Equal(t, int64(1597498800), c.EndEpochSecond())
}

func TestProblemModel_NullDifficulty(t *testing.T) {
	var table DifficultyTable
	require.NoError(t, json.Unmarshal([]byte(`{"p1":{"difficulty":812.5},"p2":{"difficulty":null}}`), &table))

	require.NotNil(t, table["p1"].Difficulty)
	assert.Equal(t, 812.5, *table["p1"].Difficulty)
	assert.Nil(t, table["p2"].Difficulty)
}
