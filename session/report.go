package session

import (
	"errors"
	"math"

	"github.com/hireready/backend/models"
)

// ErrEvaluationNotReady is returned when a report is requested before every
// question of the interview has a locked answer.
var ErrEvaluationNotReady = errors.New("evaluation not ready: not all questions have been answered")

// ReportItem is the per-question breakdown of a finished session.
type ReportItem struct {
	QuestionIndex int    `json:"question_index"`
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Rating        int    `json:"rating"`
	Feedback      string `json:"feedback"`
}

// Report is the aggregate view of a completed session. It is recomputed from
// persisted answers on every request and never stored.
type Report struct {
	InterviewID  string       `json:"interview_id"`
	OverallScore float64      `json:"overall_score"`
	Items        []ReportItem `json:"items"`
}

// BuildReport aggregates the persisted answers of one session. Every one of
// the interview's questionCount indices must have exactly one answer;
// otherwise the report is refused with ErrEvaluationNotReady. The overall
// score is the arithmetic mean of the per-question ratings rounded to one
// decimal place.
func BuildReport(interviewID string, questionCount int, answers []models.SavedAnswer) (*Report, error) {
	if questionCount == 0 {
		return nil, ErrEvaluationNotReady
	}

	byIndex := make(map[int]models.SavedAnswer, len(answers))
	for _, a := range answers {
		byIndex[a.QuestionIndex] = a
	}

	for i := 0; i < questionCount; i++ {
		if _, ok := byIndex[i]; !ok {
			return nil, ErrEvaluationNotReady
		}
	}

	items := make([]ReportItem, 0, questionCount)
	total := 0
	for i := 0; i < questionCount; i++ {
		a := byIndex[i]
		total += a.Rating
		items = append(items, ReportItem{
			QuestionIndex: i,
			Question:      a.Question,
			UserAnswer:    a.UserAnswer,
			CorrectAnswer: a.CorrectAnswer,
			Rating:        a.Rating,
			Feedback:      a.Feedback,
		})
	}

	mean := float64(total) / float64(questionCount)
	return &Report{
		InterviewID:  interviewID,
		OverallScore: math.Round(mean*10) / 10,
		Items:        items,
	}, nil
}
