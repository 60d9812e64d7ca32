package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireready/backend/models"
)

func savedAnswers(ratings ...int) []models.SavedAnswer {
	answers := make([]models.SavedAnswer, 0, len(ratings))
	for i, rating := range ratings {
		answers = append(answers, models.SavedAnswer{
			InterviewID:   "interview-1",
			UserID:        "user-1",
			QuestionIndex: i,
			Question:      "What is a goroutine?",
			CorrectAnswer: "A lightweight thread managed by the Go runtime.",
			UserAnswer:    "A lightweight concurrent function execution.",
			Rating:        rating,
			Feedback:      "ok",
		})
	}
	return answers
}

func TestBuildReportOverallScore(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"exact mean", []int{10, 8, 6}, 8.0},
		{"rounded up to one decimal", []int{8, 6, 9}, 7.7},
		{"single question", []int{7}, 7.0},
		{"all minimum", []int{1, 1, 1}, 1.0},
		{"all maximum", []int{10, 10}, 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := BuildReport("interview-1", len(tt.ratings), savedAnswers(tt.ratings...))
			require.NoError(t, err)

			assert.Equal(t, tt.want, report.OverallScore)
			assert.Equal(t, "interview-1", report.InterviewID)
			require.Len(t, report.Items, len(tt.ratings))
			for i, item := range report.Items {
				assert.Equal(t, i, item.QuestionIndex)
				assert.Equal(t, tt.ratings[i], item.Rating)
			}
		})
	}
}

func TestBuildReportRefusesIncompleteSessions(t *testing.T) {
	tests := []struct {
		name          string
		questionCount int
		answers       []models.SavedAnswer
	}{
		{"no answers", 3, nil},
		{"missing last answer", 3, savedAnswers(8, 6)},
		{"gap in the middle", 3, []models.SavedAnswer{
			{QuestionIndex: 0, Rating: 8},
			{QuestionIndex: 2, Rating: 9},
		}},
		{"no questions at all", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := BuildReport("interview-1", tt.questionCount, tt.answers)
			assert.ErrorIs(t, err, ErrEvaluationNotReady)
			assert.Nil(t, report)
		})
	}
}

func TestBuildReportCopiesAnswerFields(t *testing.T) {
	answers := savedAnswers(9)
	report, err := BuildReport("interview-1", 1, answers)
	require.NoError(t, err)

	item := report.Items[0]
	assert.Equal(t, answers[0].Question, item.Question)
	assert.Equal(t, answers[0].UserAnswer, item.UserAnswer)
	assert.Equal(t, answers[0].CorrectAnswer, item.CorrectAnswer)
	assert.Equal(t, answers[0].Feedback, item.Feedback)
}
