package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/repository"
	"github.com/hireready/backend/session"
)

const testAnswer = "I would shard the table by tenant and add a covering index."

type fakeSessionStore struct {
	interview *models.Interview
	answers   map[int]models.SavedAnswer
}

func newFakeSessionStore(questionCount int) *fakeSessionStore {
	questions := make([]models.InterviewQuestion, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		questions = append(questions, models.InterviewQuestion{
			InterviewID:   "interview-1",
			QuestionIndex: i,
			Question:      "What is a goroutine?",
			Answer:        "A lightweight thread managed by the Go runtime.",
		})
	}
	return &fakeSessionStore{
		interview: &models.Interview{
			ID:        "interview-1",
			UserID:    "user-1",
			Position:  "Backend Engineer",
			Questions: questions,
		},
		answers: make(map[int]models.SavedAnswer),
	}
}

func (f *fakeSessionStore) GetInterviewByID(ctx context.Context, interviewID, userID string) (*models.Interview, error) {
	if f.interview != nil && f.interview.ID == interviewID && f.interview.UserID == userID {
		return f.interview, nil
	}
	return nil, nil
}

func (f *fakeSessionStore) GetSavedAnswers(ctx context.Context, interviewID, userID string) ([]models.SavedAnswer, error) {
	var answers []models.SavedAnswer
	for _, a := range f.answers {
		if a.InterviewID == interviewID && a.UserID == userID {
			answers = append(answers, a)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].QuestionIndex < answers[j].QuestionIndex })
	return answers, nil
}

func (f *fakeSessionStore) GetAllSavedAnswers(ctx context.Context, userID string) ([]models.SavedAnswer, error) {
	var answers []models.SavedAnswer
	for _, a := range f.answers {
		if a.UserID == userID {
			answers = append(answers, a)
		}
	}
	return answers, nil
}

func (f *fakeSessionStore) CreateSavedAnswer(ctx context.Context, answer *models.SavedAnswer) error {
	if _, exists := f.answers[answer.QuestionIndex]; exists {
		return repository.ErrDuplicateAnswer
	}
	f.answers[answer.QuestionIndex] = *answer
	return nil
}

func sessionTestRouter(t *testing.T, store *fakeSessionStore, sessions *session.Manager) *chi.Mux {
	t.Helper()

	endpoints := NewSessionEndpoints(store, nil, sessions)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), "user", &models.User{ID: "user-1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	endpoints.RegisterRoutes(r)
	return r
}

// evaluatedSession drives the in-memory session for question 0 into the
// evaluated state the way the evaluate endpoint would.
func evaluatedSession(t *testing.T, sessions *session.Manager, rating int) *session.Session {
	t.Helper()

	s := sessions.GetOrCreate("interview-1", "user-1", 3, nil)
	require.NoError(t, s.SetMode(session.ModeKeyboard))
	require.NoError(t, s.SetDraft(testAnswer))

	_, token, err := s.BeginEvaluation()
	require.NoError(t, err)
	require.NoError(t, s.RecordEvaluation(token, session.Evaluation{Rating: rating, Feedback: "solid"}))
	return s
}

func doRequest(router *chi.Mux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSaveAnswerHandler(t *testing.T) {
	t.Run("persists the evaluated draft and locks the question", func(t *testing.T) {
		store := newFakeSessionStore(3)
		sessions := session.NewManager()
		defer sessions.Stop()
		router := sessionTestRouter(t, store, sessions)
		s := evaluatedSession(t, sessions, 8)

		rec := doRequest(router, "POST", "/interviews/interview-1/session/save", "")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		saved, ok := store.answers[0]
		require.True(t, ok)
		assert.Equal(t, testAnswer, saved.UserAnswer)
		assert.Equal(t, 8, saved.Rating)
		assert.Equal(t, "What is a goroutine?", saved.Question)

		state, err := s.State(0)
		require.NoError(t, err)
		assert.Equal(t, session.StateLocked, state)
		assert.Equal(t, 1, s.ActiveIndex())
	})

	t.Run("rejected without an evaluation", func(t *testing.T) {
		store := newFakeSessionStore(3)
		sessions := session.NewManager()
		defer sessions.Stop()
		router := sessionTestRouter(t, store, sessions)

		s := sessions.GetOrCreate("interview-1", "user-1", 3, nil)
		require.NoError(t, s.SetMode(session.ModeKeyboard))
		require.NoError(t, s.SetDraft(testAnswer))

		rec := doRequest(router, "POST", "/interviews/interview-1/session/save", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, store.answers)
	})

	t.Run("rejected when the draft changed after evaluation", func(t *testing.T) {
		store := newFakeSessionStore(3)
		sessions := session.NewManager()
		defer sessions.Stop()
		router := sessionTestRouter(t, store, sessions)
		s := evaluatedSession(t, sessions, 9)

		// Reworking the answer invalidates the rating; saving now would
		// persist text the rating never graded.
		rec := doRequest(router, "POST", "/interviews/interview-1/session/draft",
			`{"text": "a reworked answer about load balancing strategies"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(router, "POST", "/interviews/interview-1/session/save", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, store.answers, "nothing may persist without a matching evaluation")

		state, err := s.State(0)
		require.NoError(t, err)
		assert.Equal(t, session.StateDrafting, state)
	})

	t.Run("duplicate answer surfaces as conflict", func(t *testing.T) {
		store := newFakeSessionStore(3)
		sessions := session.NewManager()
		defer sessions.Stop()
		router := sessionTestRouter(t, store, sessions)
		evaluatedSession(t, sessions, 8)

		store.answers[0] = models.SavedAnswer{
			InterviewID: "interview-1", UserID: "user-1", QuestionIndex: 0, Rating: 7,
		}

		rec := doRequest(router, "POST", "/interviews/interview-1/session/save", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, 7, store.answers[0].Rating, "existing answer must be untouched")
	})

	t.Run("unknown interview", func(t *testing.T) {
		store := newFakeSessionStore(3)
		sessions := session.NewManager()
		defer sessions.Stop()
		router := sessionTestRouter(t, store, sessions)

		rec := doRequest(router, "POST", "/interviews/other-interview/session/save", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetReportHandler(t *testing.T) {
	storedAnswer := func(index, rating int) models.SavedAnswer {
		return models.SavedAnswer{
			InterviewID:   "interview-1",
			UserID:        "user-1",
			QuestionIndex: index,
			Question:      "What is a goroutine?",
			UserAnswer:    testAnswer,
			Rating:        rating,
		}
	}

	t.Run("refused while questions remain", func(t *testing.T) {
		store := newFakeSessionStore(3)
		sessions := session.NewManager()
		defer sessions.Stop()
		router := sessionTestRouter(t, store, sessions)

		store.answers[0] = storedAnswer(0, 8)
		store.answers[1] = storedAnswer(1, 6)

		rec := doRequest(router, "GET", "/interviews/interview-1/report", "")
		require.Equal(t, http.StatusConflict, rec.Code)

		var payload struct {
			Error    string `json:"error"`
			Answered int    `json:"answered"`
			Total    int    `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "Evaluation Not Ready", payload.Error)
		assert.Equal(t, 2, payload.Answered)
		assert.Equal(t, 3, payload.Total)
	})

	t.Run("aggregates a finished session", func(t *testing.T) {
		store := newFakeSessionStore(3)
		sessions := session.NewManager()
		defer sessions.Stop()
		router := sessionTestRouter(t, store, sessions)

		store.answers[0] = storedAnswer(0, 8)
		store.answers[1] = storedAnswer(1, 6)
		store.answers[2] = storedAnswer(2, 9)

		rec := doRequest(router, "GET", "/interviews/interview-1/report", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Report session.Report `json:"report"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, 7.7, payload.Report.OverallScore)
		require.Len(t, payload.Report.Items, 3)
	})

	t.Run("unknown interview", func(t *testing.T) {
		store := newFakeSessionStore(3)
		sessions := session.NewManager()
		defer sessions.Stop()
		router := sessionTestRouter(t, store, sessions)

		rec := doRequest(router, "GET", "/interviews/other-interview/report", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetAnswerHistoryHandler(t *testing.T) {
	store := newFakeSessionStore(3)
	sessions := session.NewManager()
	defer sessions.Stop()
	router := sessionTestRouter(t, store, sessions)

	store.answers[0] = models.SavedAnswer{InterviewID: "interview-1", UserID: "user-1", QuestionIndex: 0, Rating: 8}
	store.answers[1] = models.SavedAnswer{InterviewID: "interview-1", UserID: "user-1", QuestionIndex: 1, Rating: 6}

	rec := doRequest(router, "GET", "/answers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Answers []models.SavedAnswer `json:"answers"`
		Count   int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Len(t, payload.Answers, 2)
}

func TestWriteStateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"answer too short", session.ErrAnswerTooShort, http.StatusBadRequest},
		{"index out of range", session.ErrIndexOutOfRange, http.StatusBadRequest},
		{"wrong input mode", session.ErrWrongInputMode, http.StatusBadRequest},
		{"unsaved draft", session.ErrUnsavedDraft, http.StatusConflict},
		{"question locked", session.ErrQuestionLocked, http.StatusConflict},
		{"not evaluated", session.ErrNotEvaluated, http.StatusConflict},
		{"stale evaluation", session.ErrStaleEvaluation, http.StatusConflict},
		{"duplicate answer", repository.ErrDuplicateAnswer, http.StatusConflict},
		{"unexpected error", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeStateError(rec, tt.err)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}
