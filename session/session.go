package session

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// QuestionState tracks where one question of a session is in its lifecycle.
type QuestionState string

const (
	StateUnanswered QuestionState = "unanswered"
	StateDrafting   QuestionState = "drafting"
	StateEvaluated  QuestionState = "evaluated"
	StateLocked     QuestionState = "locked"
)

// InputMode selects how the candidate answer is captured.
type InputMode string

const (
	ModeVoice    InputMode = "voice"
	ModeKeyboard InputMode = "keyboard"
)

// MinAnswerLength is the minimum candidate answer length eligible for AI
// evaluation. Shorter input is rejected locally and no AI call is made.
const MinAnswerLength = 20

var (
	ErrIndexOutOfRange  = errors.New("question index out of range")
	ErrUnsavedDraft     = errors.New("answer the current question and save it before moving")
	ErrQuestionLocked   = errors.New("question is locked and can no longer be modified")
	ErrWrongInputMode   = errors.New("operation not valid for the active input mode")
	ErrAnswerTooShort   = errors.New("answer must be at least 20 characters")
	ErrNotEvaluated     = errors.New("question has no evaluation to act on")
	ErrStaleEvaluation  = errors.New("evaluation result is stale and was discarded")
	ErrAlreadyEvaluated = errors.New("question already has a pending evaluation result")
)

// Evaluation is the AI grading for one candidate answer.
type Evaluation struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// EvalToken binds an in-flight evaluation request to the question index and
// draft generation it was issued for. Results carrying a token that no longer
// matches are discarded instead of overwriting state for whatever question is
// active by the time they arrive.
type EvalToken struct {
	Index      int
	Generation uint64
}

type questionSlot struct {
	state         QuestionState
	mode          InputMode
	voiceSegments []string
	typedAnswer   string
	evaluation    *Evaluation
	evalGen       uint64
}

// Session holds the in-memory state of one user taking one interview:
// per-question states, answer drafts and the last AI evaluation.
type Session struct {
	InterviewID string
	UserID      string

	mu           sync.RWMutex
	questions    []questionSlot
	active       int
	lastActivity time.Time
}

// New builds a session for an interview with questionCount questions.
// Indices in lockedIndices start locked (rehydrated from persisted answers);
// everything else starts unanswered with the first unlocked question active.
func New(interviewID, userID string, questionCount int, lockedIndices []int) *Session {
	s := &Session{
		InterviewID:  interviewID,
		UserID:       userID,
		questions:    make([]questionSlot, questionCount),
		lastActivity: time.Now(),
	}

	locked := make(map[int]bool, len(lockedIndices))
	for _, idx := range lockedIndices {
		if idx >= 0 && idx < questionCount {
			locked[idx] = true
		}
	}

	for i := range s.questions {
		s.questions[i].mode = ModeVoice
		if locked[i] {
			s.questions[i].state = StateLocked
		} else {
			s.questions[i].state = StateUnanswered
		}
	}

	s.active = firstUnlocked(s.questions)
	return s
}

func firstUnlocked(slots []questionSlot) int {
	for i := range slots {
		if slots[i].state != StateLocked {
			return i
		}
	}
	return 0
}

func (s *Session) touch() {
	s.lastActivity = time.Now()
}

// ActiveIndex returns the currently active question index.
func (s *Session) ActiveIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// States returns the per-question states in question order.
func (s *Session) States() []QuestionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]QuestionState, len(s.questions))
	for i := range s.questions {
		states[i] = s.questions[i].state
	}
	return states
}

// State returns the state of one question.
func (s *Session) State(idx int) (QuestionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx < 0 || idx >= len(s.questions) {
		return "", ErrIndexOutOfRange
	}
	return s.questions[idx].state, nil
}

// Complete reports whether every question is locked.
func (s *Session) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completeLocked()
}

func (s *Session) completeLocked() bool {
	for i := range s.questions {
		if s.questions[i].state != StateLocked {
			return false
		}
	}
	return len(s.questions) > 0
}

// SetActive moves the active question. Navigating away from a question that
// is neither locked nor evaluated is a rejected transition, not a silent
// no-op: an unsaved draft must not be discarded without the user noticing.
func (s *Session) SetActive(idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if idx < 0 || idx >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	if idx == s.active {
		return nil
	}

	current := s.questions[s.active].state
	if current != StateLocked && current != StateEvaluated {
		return ErrUnsavedDraft
	}

	s.active = idx
	return nil
}

// SetMode switches the input mode of the active question. On an unlocked
// question the previous mode's buffer and any evaluation are discarded; on a
// locked question the call is a no-op (locked questions are view-only).
func (s *Session) SetMode(mode InputMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot := &s.questions[s.active]
	if slot.state == StateLocked {
		return nil
	}
	if mode != ModeVoice && mode != ModeKeyboard {
		return ErrWrongInputMode
	}
	if slot.mode == mode {
		return nil
	}

	slot.voiceSegments = nil
	slot.typedAnswer = ""
	slot.evaluation = nil
	slot.mode = mode
	slot.state = StateUnanswered
	return nil
}

// Mode returns the input mode of the active question.
func (s *Session) Mode() InputMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions[s.active].mode
}

// AppendSegment accumulates one speech transcript segment into the active
// question's voice draft. Changing the draft invalidates any evaluation of
// the previous draft; a rating must never outlive the text it graded.
func (s *Session) AppendSegment(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot := &s.questions[s.active]
	if slot.state == StateLocked {
		return ErrQuestionLocked
	}
	if slot.mode != ModeVoice {
		return ErrWrongInputMode
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	slot.voiceSegments = append(slot.voiceSegments, text)
	slot.evaluation = nil
	slot.state = StateDrafting
	return nil
}

// SetDraft replaces the active question's keyboard draft. Changing the draft
// invalidates any evaluation of the previous draft; a rating must never
// outlive the text it graded.
func (s *Session) SetDraft(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot := &s.questions[s.active]
	if slot.state == StateLocked {
		return ErrQuestionLocked
	}
	if slot.mode != ModeKeyboard {
		return ErrWrongInputMode
	}

	slot.typedAnswer = text
	slot.evaluation = nil
	if strings.TrimSpace(text) != "" {
		slot.state = StateDrafting
	} else {
		slot.state = StateUnanswered
	}
	return nil
}

// Draft returns the active question's current candidate answer, normalized
// to a single trimmed string regardless of input mode.
func (s *Session) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions[s.active].draft()
}

func (q *questionSlot) draft() string {
	if q.mode == ModeVoice {
		return strings.TrimSpace(strings.Join(q.voiceSegments, " "))
	}
	return strings.TrimSpace(q.typedAnswer)
}

// BeginEvaluation validates the active draft and issues a token for an AI
// evaluation call. The caller sends the returned answer to the AI gateway and
// reports back through RecordEvaluation with the same token.
func (s *Session) BeginEvaluation() (string, EvalToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot := &s.questions[s.active]
	if slot.state == StateLocked {
		return "", EvalToken{}, ErrQuestionLocked
	}

	answer := slot.draft()
	if len(answer) < MinAnswerLength {
		return "", EvalToken{}, ErrAnswerTooShort
	}

	slot.evalGen++
	return answer, EvalToken{Index: s.active, Generation: slot.evalGen}, nil
}

// RecordEvaluation stores an AI result for the question the token was issued
// for. Results for a question that is no longer active, or superseded by a
// newer evaluation of the same question, are discarded.
func (s *Session) RecordEvaluation(token EvalToken, eval Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if token.Index != s.active {
		return ErrStaleEvaluation
	}

	slot := &s.questions[s.active]
	if token.Generation != slot.evalGen {
		return ErrStaleEvaluation
	}
	if slot.state == StateLocked {
		return ErrQuestionLocked
	}

	ev := eval
	slot.evaluation = &ev
	slot.state = StateEvaluated
	return nil
}

// Evaluation returns the active question's AI result, if any.
func (s *Session) Evaluation() (Evaluation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot := &s.questions[s.active]
	if slot.evaluation == nil {
		return Evaluation{}, false
	}
	return *slot.evaluation, true
}

// Finalize snapshots the active question's draft and evaluation for
// persistence. Both are read under one lock and only while the question is
// in the evaluated state, so the stored answer text is always the exact text
// the returned rating graded.
func (s *Session) Finalize() (string, Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot := &s.questions[s.active]
	if slot.state == StateLocked {
		return "", Evaluation{}, ErrQuestionLocked
	}
	if slot.state != StateEvaluated || slot.evaluation == nil {
		return "", Evaluation{}, ErrNotEvaluated
	}

	return slot.draft(), *slot.evaluation, nil
}

// Redraft discards the active question's AI result so the user can rework
// the answer.
func (s *Session) Redraft() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot := &s.questions[s.active]
	if slot.state != StateEvaluated {
		return ErrNotEvaluated
	}

	slot.evaluation = nil
	if slot.draft() != "" {
		slot.state = StateDrafting
	} else {
		slot.state = StateUnanswered
	}
	return nil
}

// Lock transitions the active question to locked after its answer has been
// persisted, and advances the active index to the next unlocked question if
// one exists. Locking is only legal from the evaluated state.
func (s *Session) Lock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	slot := &s.questions[s.active]
	if slot.state == StateLocked {
		return ErrQuestionLocked
	}
	if slot.state != StateEvaluated {
		return ErrNotEvaluated
	}

	slot.state = StateLocked
	for i := range s.questions {
		if s.questions[i].state != StateLocked {
			s.active = i
			break
		}
	}
	return nil
}

// LastActivity returns when the session was last touched.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}
