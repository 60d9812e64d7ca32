package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hireready/backend/models"
)

// ErrDuplicateAnswer is returned when a second answer is written for the
// same (interview, user, question index). The composite unique index in the
// saved_answers schema is what actually enforces the invariant; this error
// is how the violation surfaces to callers.
var ErrDuplicateAnswer = errors.New("an answer for this question has already been saved")

// CreateSavedAnswer performs the single write that finalizes a question.
// SavedAnswers are immutable; there is no update or delete counterpart.
func (r *GORMRepository) CreateSavedAnswer(ctx context.Context, answer *models.SavedAnswer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		if IsUniqueViolation(err) {
			slog.Warn("Duplicate answer rejected", "interview_id", answer.InterviewID, "user_id", answer.UserID, "question_index", answer.QuestionIndex)
			return ErrDuplicateAnswer
		}
		slog.Error("Failed to create saved answer", "error", err)
		return err
	}
	slog.Info("Saved answer created", "answer_id", answer.ID, "interview_id", answer.InterviewID, "question_index", answer.QuestionIndex, "rating", answer.Rating)
	return nil
}

// GetSavedAnswers returns a user's persisted answers for one interview in
// question order. Session state is rehydrated from this set on load.
func (r *GORMRepository) GetSavedAnswers(ctx context.Context, interviewID, userID string) ([]models.SavedAnswer, error) {
	var answers []models.SavedAnswer
	err := r.db.WithContext(ctx).
		Where("interview_id = ? AND user_id = ?", interviewID, userID).
		Order("question_index").
		Find(&answers).Error
	if err != nil {
		slog.Error("Failed to get saved answers", "error", err, "interview_id", interviewID, "user_id", userID)
		return nil, err
	}
	return answers, nil
}

// GetAllSavedAnswers returns every persisted answer of a user across all
// interviews, most recent first.
func (r *GORMRepository) GetAllSavedAnswers(ctx context.Context, userID string) ([]models.SavedAnswer, error) {
	var answers []models.SavedAnswer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&answers).Error
	if err != nil {
		slog.Error("Failed to get all saved answers", "error", err, "user_id", userID)
		return nil, err
	}
	return answers, nil
}
