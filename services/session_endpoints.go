package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/repository"
	"github.com/hireready/backend/session"
)

// sessionStore is the persistence surface the interview-taking workflow
// needs.
type sessionStore interface {
	GetInterviewByID(ctx context.Context, interviewID, userID string) (*models.Interview, error)
	GetSavedAnswers(ctx context.Context, interviewID, userID string) ([]models.SavedAnswer, error)
	GetAllSavedAnswers(ctx context.Context, userID string) ([]models.SavedAnswer, error)
	CreateSavedAnswer(ctx context.Context, answer *models.SavedAnswer) error
}

// SessionEndpoints drives the interview-taking workflow: question
// navigation, answer drafting, AI evaluation, answer persistence and the
// final report.
type SessionEndpoints struct {
	repo          sessionStore
	geminiService *GeminiService
	sessions      *session.Manager
}

func NewSessionEndpoints(repo sessionStore, geminiService *GeminiService, sessions *session.Manager) *SessionEndpoints {
	return &SessionEndpoints{
		repo:          repo,
		geminiService: geminiService,
		sessions:      sessions,
	}
}

func (e *SessionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/interviews/{id}/session", func(r chi.Router) {
		r.Get("/", e.GetSessionHandler)
		r.Post("/active", e.SetActiveHandler)
		r.Post("/mode", e.SetModeHandler)
		r.Post("/draft", e.SetDraftHandler)
		r.Post("/evaluate", e.EvaluateHandler)
		r.Post("/redraft", e.RedraftHandler)
		r.Post("/save", e.SaveAnswerHandler)
	})
	r.Get("/interviews/{id}/report", e.GetReportHandler)
	r.Get("/answers", e.GetAnswerHistoryHandler)
}

// SessionView is the serialized state of one interview-taking session.
type SessionView struct {
	InterviewID string                  `json:"interview_id"`
	ActiveIndex int                     `json:"active_index"`
	Mode        session.InputMode       `json:"mode"`
	States      []session.QuestionState `json:"states"`
	Draft       string                  `json:"draft"`
	Evaluation  *session.Evaluation     `json:"evaluation,omitempty"`
	Complete    bool                    `json:"complete"`
}

func sessionView(s *session.Session) SessionView {
	view := SessionView{
		InterviewID: s.InterviewID,
		ActiveIndex: s.ActiveIndex(),
		Mode:        s.Mode(),
		States:      s.States(),
		Draft:       s.Draft(),
		Complete:    s.Complete(),
	}
	if eval, ok := s.Evaluation(); ok {
		view.Evaluation = &eval
	}
	return view
}

// loadSession fetches the interview and returns its live session,
// rehydrating one from persisted answers when none is in memory.
func (e *SessionEndpoints) loadSession(ctx context.Context, interviewID string, user *models.User) (*models.Interview, *session.Session, error) {
	interview, err := e.repo.GetInterviewByID(ctx, interviewID, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if interview == nil {
		return nil, nil, nil
	}

	if s, ok := e.sessions.Get(interviewID, user.ID); ok {
		return interview, s, nil
	}

	answers, err := e.repo.GetSavedAnswers(ctx, interviewID, user.ID)
	if err != nil {
		return nil, nil, err
	}

	lockedIndices := make([]int, 0, len(answers))
	for _, a := range answers {
		lockedIndices = append(lockedIndices, a.QuestionIndex)
	}

	s := e.sessions.GetOrCreate(interviewID, user.ID, len(interview.Questions), lockedIndices)
	return interview, s, nil
}

// writeStateError maps session state-machine violations to HTTP statuses.
func writeStateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrAnswerTooShort):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrIndexOutOfRange), errors.Is(err, session.ErrWrongInputMode):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrUnsavedDraft),
		errors.Is(err, session.ErrQuestionLocked),
		errors.Is(err, session.ErrNotEvaluated),
		errors.Is(err, session.ErrStaleEvaluation):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, repository.ErrDuplicateAnswer):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (e *SessionEndpoints) withSession(w http.ResponseWriter, r *http.Request) (*models.Interview, *session.Session, *models.User, bool) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return nil, nil, nil, false
	}

	interviewID := chi.URLParam(r, "id")
	interview, s, err := e.loadSession(r.Context(), interviewID, user)
	if err != nil {
		slog.Error("Failed to load session", "error", err, "interview_id", interviewID, "user_id", user.ID)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return nil, nil, nil, false
	}
	if interview == nil {
		http.Error(w, "Interview not found", http.StatusNotFound)
		return nil, nil, nil, false
	}

	return interview, s, user, true
}

func writeSessionView(w http.ResponseWriter, s *session.Session) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": sessionView(s),
	})
}

func (e *SessionEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	_, s, _, ok := e.withSession(w, r)
	if !ok {
		return
	}
	writeSessionView(w, s)
}

type SetActiveRequest struct {
	Index int `json:"index"`
}

func (e *SessionEndpoints) SetActiveHandler(w http.ResponseWriter, r *http.Request) {
	_, s, _, ok := e.withSession(w, r)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.SetActive(req.Index); err != nil {
		writeStateError(w, err)
		return
	}
	writeSessionView(w, s)
}

type SetModeRequest struct {
	Mode session.InputMode `json:"mode"`
}

func (e *SessionEndpoints) SetModeHandler(w http.ResponseWriter, r *http.Request) {
	_, s, _, ok := e.withSession(w, r)
	if !ok {
		return
	}

	var req SetModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.SetMode(req.Mode); err != nil {
		writeStateError(w, err)
		return
	}
	writeSessionView(w, s)
}

type SetDraftRequest struct {
	Text string `json:"text"`
}

func (e *SessionEndpoints) SetDraftHandler(w http.ResponseWriter, r *http.Request) {
	_, s, _, ok := e.withSession(w, r)
	if !ok {
		return
	}

	var req SetDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.SetDraft(req.Text); err != nil {
		writeStateError(w, err)
		return
	}
	writeSessionView(w, s)
}

// EvaluateHandler grades the active draft. The evaluation token issued
// before the AI call binds the result to the question and draft generation
// it was requested for; a result arriving after the user moved on is
// discarded instead of overwriting the now-active question.
func (e *SessionEndpoints) EvaluateHandler(w http.ResponseWriter, r *http.Request) {
	interview, s, user, ok := e.withSession(w, r)
	if !ok {
		return
	}

	answer, token, err := s.BeginEvaluation()
	if err != nil {
		writeStateError(w, err)
		return
	}

	if token.Index >= len(interview.Questions) {
		http.Error(w, "Question index out of range", http.StatusConflict)
		return
	}
	q := interview.Questions[token.Index]

	eval, err := e.geminiService.EvaluateAnswer(r.Context(), q.Question, q.Answer, answer)
	if err != nil {
		// The draft is untouched; the user can re-trigger the evaluation.
		slog.Error("Evaluation failed", "error", err, "interview_id", interview.ID, "question_index", token.Index)
		http.Error(w, "Failed to evaluate answer", http.StatusBadGateway)
		return
	}

	if err := s.RecordEvaluation(token, eval); err != nil {
		writeStateError(w, err)
		return
	}

	slog.Info("Answer evaluated", "interview_id", interview.ID, "user_id", user.ID, "question_index", token.Index, "rating", eval.Rating)
	writeSessionView(w, s)
}

func (e *SessionEndpoints) RedraftHandler(w http.ResponseWriter, r *http.Request) {
	_, s, _, ok := e.withSession(w, r)
	if !ok {
		return
	}

	if err := s.Redraft(); err != nil {
		writeStateError(w, err)
		return
	}
	writeSessionView(w, s)
}

// SaveAnswerHandler persists the evaluated answer and locks the question.
// The question transitions to locked only after the write succeeds; on
// failure it stays evaluated so the user can retry.
func (e *SessionEndpoints) SaveAnswerHandler(w http.ResponseWriter, r *http.Request) {
	interview, s, user, ok := e.withSession(w, r)
	if !ok {
		return
	}

	userAnswer, eval, err := s.Finalize()
	if err != nil {
		writeStateError(w, err)
		return
	}

	idx := s.ActiveIndex()
	if idx >= len(interview.Questions) {
		http.Error(w, "Question index out of range", http.StatusConflict)
		return
	}
	q := interview.Questions[idx]

	answer := &models.SavedAnswer{
		InterviewID:   interview.ID,
		UserID:        user.ID,
		QuestionIndex: idx,
		Question:      q.Question,
		CorrectAnswer: q.Answer,
		UserAnswer:    userAnswer,
		Rating:        eval.Rating,
		Feedback:      eval.Feedback,
	}

	if err := e.repo.CreateSavedAnswer(r.Context(), answer); err != nil {
		writeStateError(w, err)
		return
	}

	if err := s.Lock(); err != nil {
		// The write went through; a lock failure here means the state
		// changed underneath us. Surface it rather than hide the answer.
		writeStateError(w, err)
		return
	}

	message := "Answer saved successfully"
	if s.Complete() {
		message = "Answer saved successfully. All questions answered - evaluation is ready."
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": sessionView(s),
		"answer":  answer,
		"message": message,
	})

	slog.Info("Answer saved and question locked", "interview_id", interview.ID, "user_id", user.ID, "question_index", idx, "rating", eval.Rating)
}

// GetReportHandler aggregates the persisted answers of a finished session.
// Completeness is derived by re-reading persisted state on every request,
// never from a cached flag.
func (e *SessionEndpoints) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	interviewID := chi.URLParam(r, "id")
	interview, err := e.repo.GetInterviewByID(r.Context(), interviewID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get interview", http.StatusInternalServerError)
		return
	}
	if interview == nil {
		http.Error(w, "Interview not found", http.StatusNotFound)
		return
	}

	answers, err := e.repo.GetSavedAnswers(r.Context(), interviewID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get saved answers", http.StatusInternalServerError)
		return
	}

	report, err := session.BuildReport(interviewID, len(interview.Questions), answers)
	if err != nil {
		if errors.Is(err, session.ErrEvaluationNotReady) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":    "Evaluation Not Ready",
				"message":  fmt.Sprintf("%d of %d questions answered", len(answers), len(interview.Questions)),
				"answered": len(answers),
				"total":    len(interview.Questions),
			})
			return
		}
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"report": report,
	})

	slog.Info("Report generated", "interview_id", interviewID, "user_id", user.ID, "overall_score", report.OverallScore)
}

// GetAnswerHistoryHandler lists every answer the user has saved across all
// interviews, most recent first.
func (e *SessionEndpoints) GetAnswerHistoryHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	answers, err := e.repo.GetAllSavedAnswers(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get saved answers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"answers": answers,
		"count":   len(answers),
	})
}
