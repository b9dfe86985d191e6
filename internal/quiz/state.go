package quiz

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	// ErrEmptyQuestionSet is returned by Start when there is nothing to ask.
	ErrEmptyQuestionSet = errors.New("question set is empty")

	// ErrInvalidTransition is returned when an action is not valid in the
	// current phase. Callers are expected to prevent these.
	ErrInvalidTransition = errors.New("invalid quiz transition")
)

// Phase is the lifecycle phase of a quiz.
type Phase int

const (
	PhaseSelecting  Phase = iota // No category chosen yet
	PhaseInProgress             // Answering questions
	PhaseCompleted              // Scored, waiting for restart
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseCompleted:
		return "completed"
	default:
		return "selecting"
	}
}

// MarshalText encodes the phase as its name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, v := range []Phase{PhaseSelecting, PhaseInProgress, PhaseCompleted} {
		if v.String() == string(text) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown quiz phase %q", text)
}

// State is the quiz state machine for one taker. It is not safe for
// concurrent use; the owner serializes transitions.
type State struct {
	now func() time.Time

	phase     Phase
	category  Category
	questions []Question
	index     int
	answers   AnswerMap
	startedAt time.Time
	endedAt   time.Time
	score     int
	total     int
}

// NewState returns a state machine in the selecting phase.
func NewState() *State {
	return NewStateWithClock(time.Now)
}

// NewStateWithClock is NewState with an injected clock.
func NewStateWithClock(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{now: now, answers: AnswerMap{}}
}

// Start begins a quiz over questions. It is valid from the selecting and
// completed phases. An empty set returns ErrEmptyQuestionSet and leaves the
// state as it was.
func (s *State) Start(category Category, questions []Question) error {
	if s.phase == PhaseInProgress {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, s.phase)
	}
	if len(questions) == 0 {
		return ErrEmptyQuestionSet
	}

	qs := make([]Question, len(questions))
	copy(qs, questions)

	s.phase = PhaseInProgress
	s.category = category
	s.questions = qs
	s.index = 0
	s.answers = AnswerMap{}
	s.startedAt = s.now()
	s.endedAt = time.Time{}
	s.score = 0
	s.total = len(qs)
	return nil
}

// SelectAnswer records optionKey for questionID, replacing any earlier
// choice. The index does not move. questionID must belong to the running
// quiz; option keys are not checked against the question's options.
func (s *State) SelectAnswer(questionID, optionKey string) error {
	if s.phase != PhaseInProgress {
		return fmt.Errorf("%w: answer while %s", ErrInvalidTransition, s.phase)
	}
	if !slices.ContainsFunc(s.questions, func(q Question) bool { return q.ID == questionID }) {
		return fmt.Errorf("%w: question %q is not in this quiz", ErrInvalidTransition, questionID)
	}
	s.answers[questionID] = optionKey
	return nil
}

// Next moves to the following question, or scores the quiz and completes it
// when called on the last question. It reports whether the quiz completed.
// The caller ensures the current question has been answered.
func (s *State) Next() (bool, error) {
	if s.phase != PhaseInProgress {
		return false, fmt.Errorf("%w: next while %s", ErrInvalidTransition, s.phase)
	}
	if s.index < s.total-1 {
		s.index++
		return false, nil
	}

	s.score = CountCorrect(s.questions, s.answers)
	s.endedAt = s.now()
	s.phase = PhaseCompleted
	return true, nil
}

// Previous moves back one question. Answers are kept.
func (s *State) Previous() error {
	if s.phase != PhaseInProgress {
		return fmt.Errorf("%w: previous while %s", ErrInvalidTransition, s.phase)
	}
	if s.index == 0 {
		return fmt.Errorf("%w: previous on first question", ErrInvalidTransition)
	}
	s.index--
	return nil
}

// Reset discards the quiz and returns to the selecting phase.
func (s *State) Reset() {
	*s = State{now: s.now, answers: AnswerMap{}}
}

func (s *State) Phase() Phase         { return s.phase }
func (s *State) Category() Category   { return s.category }
func (s *State) Index() int           { return s.index }
func (s *State) Total() int           { return s.total }
func (s *State) StartedAt() time.Time { return s.startedAt }

// Score is the final score; it is only meaningful once completed.
func (s *State) Score() int { return s.score }

// Current returns the question at the current index.
func (s *State) Current() (Question, bool) {
	if s.phase == PhaseSelecting || s.index >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.index], true
}

// Answer returns the selected option for questionID.
func (s *State) Answer(questionID string) (string, bool) {
	key, ok := s.answers[questionID]
	return key, ok
}

// CurrentAnswered reports whether the current question has a selection.
func (s *State) CurrentAnswered() bool {
	q, ok := s.Current()
	if !ok {
		return false
	}
	_, answered := s.answers[q.ID]
	return answered
}

// Answers returns a copy of the answer map.
func (s *State) Answers() AnswerMap {
	return s.answers.Clone()
}

// Questions returns a copy of the question set.
func (s *State) Questions() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Elapsed is the time from start to completion, or to now while in progress.
func (s *State) Elapsed() time.Duration {
	switch s.phase {
	case PhaseInProgress:
		return s.now().Sub(s.startedAt)
	case PhaseCompleted:
		return s.endedAt.Sub(s.startedAt)
	}
	return 0
}

// Attempt builds the record of a completed quiz for userID.
func (s *State) Attempt(userID string) (AttemptInput, error) {
	if s.phase != PhaseCompleted {
		return AttemptInput{}, fmt.Errorf("%w: attempt while %s", ErrInvalidTransition, s.phase)
	}
	return AttemptInput{
		UserID:         userID,
		CategoryID:     s.category.ID,
		Score:          s.score,
		TotalQuestions: s.total,
		Answers:        s.answers.Clone(),
		TimeTakenSecs:  int(s.Elapsed() / time.Second),
		CreatedAt:      s.endedAt,
	}, nil
}

// ReviewItem describes one question after completion.
type ReviewItem struct {
	Question Question `json:"question"`
	Chosen   string   `json:"chosen,omitempty"`
	Answered bool     `json:"answered"`
	Correct  bool     `json:"correct"`
}

// Review lists every question with the taker's choice. Only valid once
// the quiz is completed.
func (s *State) Review() ([]ReviewItem, error) {
	if s.phase != PhaseCompleted {
		return nil, fmt.Errorf("%w: review while %s", ErrInvalidTransition, s.phase)
	}
	items := make([]ReviewItem, len(s.questions))
	for i, q := range s.questions {
		chosen, answered := s.answers[q.ID]
		items[i] = ReviewItem{
			Question: q,
			Chosen:   chosen,
			Answered: answered,
			Correct:  answered && chosen == q.Correct,
		}
	}
	return items, nil
}

// Snapshot is a point-in-time copy of a State for readers.
type Snapshot struct {
	Phase       Phase      `json:"phase"`
	Category    Category   `json:"category"`
	Index       int        `json:"index"`
	Total       int        `json:"total"`
	Questions   []Question `json:"questions,omitempty"`
	Answers     AnswerMap  `json:"answers"`
	StartedAt   time.Time  `json:"started_at,omitzero"`
	CompletedAt time.Time  `json:"completed_at,omitzero"`
	Score       int        `json:"score"`
}

// Snapshot copies the state. Mutating the result does not affect s.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Phase:       s.phase,
		Category:    s.category,
		Index:       s.index,
		Total:       s.total,
		Questions:   s.Questions(),
		Answers:     s.answers.Clone(),
		StartedAt:   s.startedAt,
		CompletedAt: s.endedAt,
		Score:       s.score,
	}
}
