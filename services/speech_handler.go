package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/session"
	ws "github.com/hireready/backend/websocket"
)

// safeSend tries to send a message to the client channel, recovers if closed
func safeSend(ch chan<- []byte, msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			// Channel is closed, ignore
		}
	}()
	select {
	case ch <- msg:
		// sent
	default:
		// channel full or closed
	}
}

// SpeechHandler wires speech-mode answer capture over websocket: the browser
// streams its speech-to-text transcript segments while recording; stopping
// capture finalizes the draft and immediately triggers AI evaluation.
type SpeechHandler struct {
	repo          interviewLoader
	geminiService *GeminiService
	sessions      *session.Manager
}

type interviewLoader interface {
	GetInterviewByID(ctx context.Context, interviewID, userID string) (*models.Interview, error)
	GetSavedAnswers(ctx context.Context, interviewID, userID string) ([]models.SavedAnswer, error)
}

func NewSpeechHandler(repo interviewLoader, geminiService *GeminiService, sessions *session.Manager) *SpeechHandler {
	return &SpeechHandler{
		repo:          repo,
		geminiService: geminiService,
		sessions:      sessions,
	}
}

// HandleMessage processes one incoming speech-capture frame.
func (h *SpeechHandler) HandleMessage(client *ws.Client, messageBytes []byte) {
	var msg ws.Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		slog.Error("Failed to unmarshal WebSocket message", "error", err, "user_id", client.UserID)
		h.sendError(client, "invalid message")
		return
	}

	s, err := h.sessionFor(client)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}

	switch msg.Type {
	case "segment":
		h.handleSegment(client, s, msg.Content)
	case "stop":
		h.handleStop(client, s)
	default:
		slog.Warn("Unknown WebSocket message type", "type", msg.Type, "user_id", client.UserID)
	}
}

// sessionFor returns the live session for the client's interview,
// rehydrating it from persisted answers on a fresh connection.
func (h *SpeechHandler) sessionFor(client *ws.Client) (*session.Session, error) {
	if s, ok := h.sessions.Get(client.InterviewID, client.UserID); ok {
		return s, nil
	}

	ctx := context.Background()
	interview, err := h.repo.GetInterviewByID(ctx, client.InterviewID, client.UserID)
	if err != nil || interview == nil {
		return nil, errors.New("interview not found")
	}

	answers, err := h.repo.GetSavedAnswers(ctx, client.InterviewID, client.UserID)
	if err != nil {
		return nil, errors.New("failed to load saved answers")
	}

	lockedIndices := make([]int, 0, len(answers))
	for _, a := range answers {
		lockedIndices = append(lockedIndices, a.QuestionIndex)
	}

	return h.sessions.GetOrCreate(client.InterviewID, client.UserID, len(interview.Questions), lockedIndices), nil
}

func (h *SpeechHandler) handleSegment(client *ws.Client, s *session.Session, text string) {
	if s.Mode() != session.ModeVoice {
		if err := s.SetMode(session.ModeVoice); err != nil {
			h.sendError(client, err.Error())
			return
		}
	}

	if err := s.AppendSegment(text); err != nil {
		h.sendError(client, err.Error())
		return
	}

	h.send(client, ws.Message{
		Type:       "draft",
		Content:    s.Draft(),
		QuestionID: s.ActiveIndex(),
	})
}

// handleStop finalizes the accumulated transcript and runs the AI
// evaluation. The token from BeginEvaluation guards against the user moving
// to another question while the AI call is in flight.
func (h *SpeechHandler) handleStop(client *ws.Client, s *session.Session) {
	answer, token, err := s.BeginEvaluation()
	if err != nil {
		h.sendError(client, err.Error())
		return
	}

	interview, err := h.repo.GetInterviewByID(context.Background(), client.InterviewID, client.UserID)
	if err != nil || interview == nil || token.Index >= len(interview.Questions) {
		h.sendError(client, "interview not found")
		return
	}
	q := interview.Questions[token.Index]

	eval, err := h.geminiService.EvaluateAnswer(context.Background(), q.Question, q.Answer, answer)
	if err != nil {
		slog.Error("Speech evaluation failed", "error", err, "interview_id", client.InterviewID, "question_index", token.Index)
		h.sendError(client, "failed to evaluate answer")
		return
	}

	if err := s.RecordEvaluation(token, eval); err != nil {
		if errors.Is(err, session.ErrStaleEvaluation) {
			slog.Info("Discarded stale evaluation", "interview_id", client.InterviewID, "question_index", token.Index)
			return
		}
		h.sendError(client, err.Error())
		return
	}

	h.send(client, ws.Message{
		Type:       "evaluation",
		Rating:     eval.Rating,
		Feedback:   eval.Feedback,
		QuestionID: token.Index,
	})
}

func (h *SpeechHandler) send(client *ws.Client, msg ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal WebSocket message", "error", err)
		return
	}
	safeSend(client.Send, data)
}

func (h *SpeechHandler) sendError(client *ws.Client, message string) {
	h.send(client, ws.Message{Type: "error", Content: message})
}
