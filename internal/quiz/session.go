package quiz

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/forkina/evaluator/internal/model"
)

var (
	// ErrNoQuestions is returned when grading a session whose text yielded
	// no parseable questions.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrNotAllAnswered is returned when grading before every question has
	// an answer.
	ErrNotAllAnswered = errors.New("not all questions answered")
)

// Session is one interactive quiz run. Sessions are driven over HTTP, so
// concurrent requests for the same ID are possible; all mutable state sits
// behind the session's own lock and is reached through methods only.
// Answers stay mutable after grading; Grade recomputes deterministically
// from whatever is recorded.
type Session struct {
	ID      string
	RepoURL string

	mu        sync.Mutex
	raw       string
	questions []Question
	answers   map[int]string
	graded    bool
	score     int
}

// State is a point-in-time copy of a session's mutable state.
type State struct {
	Questions []Question
	Answers   map[int]string
	Graded    bool
	Score     int
}

// NewSession parses raw quiz text into a fresh session.
func NewSession(id, repoURL, raw string) *Session {
	return &Session{
		ID:        id,
		RepoURL:   repoURL,
		raw:       raw,
		questions: Parse(raw),
		answers:   make(map[int]string),
	}
}

// State returns a consistent snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Questions: make([]Question, len(s.questions)),
		Answers:   make(map[int]string, len(s.answers)),
		Graded:    s.graded,
		Score:     s.score,
	}
	copy(st.Questions, s.questions)
	for i, a := range s.answers {
		st.Answers[i] = a
	}
	return st
}

// QuestionCount returns the number of parsed questions.
func (s *Session) QuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// RecordAnswer stores the selected label for a question, overwriting any
// prior answer. The label is not checked against the question's own option
// set; an unknown label simply never matches the correct one.
func (s *Session) RecordAnswer(index int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("question index %d out of range [0,%d)", index, len(s.questions))
	}
	s.answers[index] = label
	return nil
}

// AllAnswered reports whether every question has a recorded answer.
func (s *Session) AllAnswered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allAnswered()
}

func (s *Session) allAnswered() bool {
	if len(s.questions) == 0 {
		return false
	}
	for i := range s.questions {
		if _, ok := s.answers[i]; !ok {
			return false
		}
	}
	return true
}

// CorrectCount returns how many recorded answers match the detected correct
// label. Questions with no detected label never count as correct.
func (s *Session) CorrectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correctCount()
}

func (s *Session) correctCount() int {
	count := 0
	for i, q := range s.questions {
		if q.Correct != "" && s.answers[i] == q.Correct {
			count++
		}
	}
	return count
}

// Grade computes the percentage score. It requires every question to be
// answered and is idempotent: regrading with unchanged answers yields the
// same score.
func (s *Session) Grade() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return 0, ErrNoQuestions
	}
	if !s.allAnswered() {
		return 0, ErrNotAllAnswered
	}
	s.score = int(math.Round(float64(s.correctCount()) / float64(len(s.questions)) * 100))
	s.graded = true
	return s.score, nil
}

// BuildResult packages the session into the payload handed to the
// evaluation service. Question indices are 1-based in the payload, matching
// the persisted result shape.
func (s *Session) BuildResult() model.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := make([]model.QuizAnswer, 0, len(s.questions))
	for i, q := range s.questions {
		selected := s.answers[i]
		answers = append(answers, model.QuizAnswer{
			QuestionIndex:  i + 1,
			Question:       q.Text,
			SelectedAnswer: selected,
			CorrectAnswer:  q.Correct,
			IsCorrect:      q.Correct != "" && selected == q.Correct,
		})
	}
	return model.QuizResult{
		RepoURL:        s.RepoURL,
		QuizContent:    s.raw,
		Answers:        answers,
		Score:          s.score,
		TotalQuestions: len(s.questions),
		CorrectAnswers: s.correctCount(),
	}
}

// Reset replaces the question list from new raw text and clears all answers
// and the score. Used for "regenerate from same or new source".
func (s *Session) Reset(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	s.questions = Parse(raw)
	s.answers = make(map[int]string)
	s.graded = false
	s.score = 0
}

// Manager owns live quiz sessions keyed by opaque ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create parses raw text into a new session and registers it.
func (m *Manager) Create(repoURL, raw string) *Session {
	s := NewSession(uuid.NewString(), repoURL, raw)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given ID, or false.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
