package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func questionBank(total, practiced int) []Question {
	questions := make([]Question, 0, total)
	for i := 0; i < total; i++ {
		q := Question{ID: string(rune('a' + i)), Type: QuestionTechnical, Difficulty: DifficultyMedium}
		if i < practiced {
			q.Practiced = true
		}
		questions = append(questions, q)
	}
	return questions
}

func TestComputeQuestionStats(t *testing.T) {
	questions := []Question{
		{Type: QuestionTechnical, Difficulty: DifficultyEasy},
		{Type: QuestionTechnical, Difficulty: DifficultyHard},
		{Type: QuestionBehavioral, Difficulty: DifficultyMedium},
		{Type: QuestionSystemDesign, Difficulty: DifficultyHard},
		{Type: QuestionSituational, Difficulty: DifficultyEasy},
		{Type: QuestionCoding, Difficulty: DifficultyMedium},
	}

	stats := ComputeQuestionStats(questions)

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 2, stats.Technical)
	assert.Equal(t, 1, stats.Behavioral)
	assert.Equal(t, 1, stats.SystemDesign)
	assert.Equal(t, 1, stats.Situational)
	assert.Equal(t, 1, stats.Coding)
	assert.Equal(t, 2, stats.Easy)
	assert.Equal(t, 2, stats.Medium)
	assert.Equal(t, 2, stats.Hard)
}

func TestComputeQuestionStatsEmpty(t *testing.T) {
	assert.Equal(t, QuestionStats{}, ComputeQuestionStats(nil))
}

func TestCompletionProgress(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		practiced     int
		wantCompleted int
		wantPercent   int
	}{
		{name: "empty bank", total: 0, practiced: 0, wantCompleted: 0, wantPercent: 0},
		{name: "none practiced", total: 10, practiced: 0, wantCompleted: 0, wantPercent: 0},
		{name: "three of ten", total: 10, practiced: 3, wantCompleted: 3, wantPercent: 30},
		{name: "one of three rounds", total: 3, practiced: 1, wantCompleted: 1, wantPercent: 33},
		{name: "two of three rounds", total: 3, practiced: 2, wantCompleted: 2, wantPercent: 67},
		{name: "all practiced", total: 10, practiced: 10, wantCompleted: 10, wantPercent: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completed, total, percent := CompletionProgress(questionBank(tt.total, tt.practiced))
			assert.Equal(t, tt.wantCompleted, completed)
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.wantPercent, percent)
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name        string
		current     PrepStatus
		percent     int
		hasPractice bool
		want        PrepStatus
	}{
		{name: "completed is sticky", current: PrepCompleted, percent: 0, want: PrepCompleted},
		{name: "full completion wins", current: PrepInProgress, percent: 100, want: PrepCompleted},
		{name: "generated plus practice", current: PrepGenerated, percent: 0, hasPractice: true, want: PrepInProgress},
		{name: "generated plus progress", current: PrepGenerated, percent: 30, want: PrepInProgress},
		{name: "generated untouched", current: PrepGenerated, percent: 0, want: PrepGenerated},
		{name: "in progress stays", current: PrepInProgress, percent: 50, want: PrepInProgress},
		{name: "draft unaffected by recompute", current: PrepDraft, percent: 0, want: PrepDraft},
		{name: "generating unaffected", current: PrepGenerating, percent: 0, want: PrepGenerating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.current, tt.percent, tt.hasPractice))
		})
	}
}

func TestAverageSessionConfidence(t *testing.T) {
	assert.Equal(t, float64(0), AverageSessionConfidence(nil))

	sessions := []PracticeSession{
		{AverageConfidence: 2},
		{AverageConfidence: 3},
		{AverageConfidence: 4},
	}
	assert.InDelta(t, 3.0, AverageSessionConfidence(sessions), 1e-9)

	sessions = append(sessions, PracticeSession{AverageConfidence: 5})
	assert.InDelta(t, 3.5, AverageSessionConfidence(sessions), 1e-9)
}
