package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/quiz"
)

var (
	// ErrNoQuestionsAvailable means the category has no questions; the quiz
	// must not start.
	ErrNoQuestionsAvailable = errors.New("no questions available for category")

	// ErrPersistence wraps a failed attempt write. The local completion is
	// kept and the write is not retried.
	ErrPersistence = errors.New("failed to save quiz attempt")

	// ErrHistoryFetch wraps a failed history read. Callers fall back to an
	// empty list.
	ErrHistoryFetch = errors.New("failed to load attempt history")

	// ErrStaleSession is returned when a result is applied for a session
	// that is no longer current. The result is discarded.
	ErrStaleSession = errors.New("stale quiz session")

	// ErrNotCompleted is returned when completion data is requested before
	// the quiz has finished.
	ErrNotCompleted = errors.New("quiz not completed")

	// ErrUnanswered is returned by Next when the current question has no
	// selected option.
	ErrUnanswered = errors.New("current question not answered")
)

// EventAttemptCreated is the topic published after an attempt is saved.
const EventAttemptCreated = "attempt.created"

// QuestionSource loads the question set of a category.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, categoryID string) ([]quiz.Question, error)
}

// AttemptSink persists completed attempts.
type AttemptSink interface {
	PersistAttempt(ctx context.Context, in quiz.AttemptInput) (quiz.Attempt, error)
}

// HistorySource reads a user's attempts for a category.
type HistorySource interface {
	FetchAttemptHistory(ctx context.Context, userID, categoryID string) ([]quiz.Attempt, error)
}

// Publisher receives realtime notifications.
type Publisher interface {
	Publish(topic string, payload any)
}

// Options wires a controller to its collaborators. Questions, Attempts and
// History are required.
type Options struct {
	Questions QuestionSource
	Attempts  AttemptSink
	History   HistorySource

	// Publisher is optional.
	Publisher Publisher

	Now   func() time.Time
	NewID func() string
}

// Completion is the outcome of a finished quiz.
type Completion struct {
	SessionID  string            `json:"session_id"`
	Category   quiz.Category     `json:"category"`
	Input      quiz.AttemptInput `json:"input"`
	Percentage int               `json:"percentage"`
	Band       quiz.Band         `json:"band"`
	Review     []quiz.ReviewItem `json:"review"`

	// Attempt is the saved record, nil until persisted.
	Attempt *quiz.Attempt `json:"attempt,omitempty"`

	// PersistErr is set when saving failed.
	PersistErr error `json:"-"`

	persistTried bool
}

// Persisted reports whether the attempt was saved.
func (c *Completion) Persisted() bool { return c.Attempt != nil }

func (c *Completion) clone() *Completion {
	if c == nil {
		return nil
	}
	out := *c
	out.Input.Answers = c.Input.Answers.Clone()
	out.Review = slices.Clone(c.Review)
	if c.Attempt != nil {
		a := *c.Attempt
		a.Answers = c.Attempt.Answers.Clone()
		out.Attempt = &a
	}
	return &out
}

// Controller runs one user's quiz sessions. It owns the state machine,
// loads question sets and history, and saves completed attempts. Methods
// are safe for concurrent use; collaborator IO happens outside the lock.
type Controller struct {
	profile auth.Profile
	opts    Options

	mu         sync.Mutex
	state      *quiz.State
	sessionID  string
	category   quiz.Category
	completion *Completion

	history         []quiz.Attempt
	historyCategory string
}

// NewController creates a controller for profile.
func NewController(profile auth.Profile, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Controller{
		profile:   profile,
		opts:      opts,
		state:     quiz.NewStateWithClock(opts.Now),
		sessionID: opts.NewID(),
	}
}

// Profile returns the user the controller acts for.
func (c *Controller) Profile() auth.Profile { return c.profile }

// SessionID returns the tag of the current session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// FetchQuestionSet loads and orders the questions of categoryID. An empty
// set returns ErrNoQuestionsAvailable.
func (c *Controller) FetchQuestionSet(ctx context.Context, categoryID string) ([]quiz.Question, error) {
	qs, err := c.opts.Questions.FetchQuestions(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("fetch questions for %s: %w", categoryID, err)
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestionsAvailable
	}
	quiz.SortForServing(qs)
	return qs, nil
}

// Select abandons any current quiz, starts a new session for category and
// returns its tag. The quiz begins once ApplyQuestionSet is called with
// the same tag.
func (c *Controller) Select(category quiz.Category) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset()
	c.sessionID = c.opts.NewID()
	c.category = category
	c.completion = nil
	return c.sessionID
}

// ApplyQuestionSet starts the quiz of session tag with questions. Results
// for an older tag return ErrStaleSession and change nothing.
func (c *Controller) ApplyQuestionSet(tag string, questions []quiz.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag != c.sessionID {
		return ErrStaleSession
	}
	if len(questions) == 0 {
		return ErrNoQuestionsAvailable
	}
	if err := c.state.Start(c.category, questions); err != nil {
		return err
	}
	c.completion = nil
	return nil
}

// Begin selects category, fetches its questions and starts the quiz.
func (c *Controller) Begin(ctx context.Context, category quiz.Category) (string, error) {
	tag := c.Select(category)
	qs, err := c.FetchQuestionSet(ctx, category.ID)
	if err != nil {
		return tag, err
	}
	return tag, c.ApplyQuestionSet(tag, qs)
}

// SelectAnswer records optionKey for questionID in the current quiz.
func (c *Controller) SelectAnswer(questionID, optionKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SelectAnswer(questionID, optionKey)
}

// SelectCurrent records optionKey for the question at the current index.
func (c *Controller) SelectCurrent(optionKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.state.Current()
	if !ok {
		return fmt.Errorf("%w: no current question", quiz.ErrInvalidTransition)
	}
	return c.state.SelectAnswer(q.ID, optionKey)
}

// Previous moves back one question.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Previous()
}

// Next advances the quiz. When it completes, the returned Completion holds
// the score and review; it is nil otherwise. Saving is left to
// PersistAttempt.
func (c *Controller) Next() (*Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase() == quiz.PhaseInProgress && !c.state.CurrentAnswered() {
		return nil, ErrUnanswered
	}
	done, err := c.state.Next()
	if err != nil || !done {
		return nil, err
	}

	in, err := c.state.Attempt(c.profile.UserID)
	if err != nil {
		return nil, err
	}
	review, err := c.state.Review()
	if err != nil {
		return nil, err
	}
	c.completion = &Completion{
		SessionID:  c.sessionID,
		Category:   c.category,
		Input:      in,
		Percentage: quiz.Percentage(in.Score, in.TotalQuestions),
		Band:       quiz.ScoreBand(in.Score, in.TotalQuestions),
		Review:     review,
	}
	return c.completion.clone(), nil
}

// PersistAttempt saves the completed attempt of session tag. It writes at
// most once per session: later calls return the first outcome without
// touching the sink.
func (c *Controller) PersistAttempt(ctx context.Context, tag string) (*Completion, error) {
	c.mu.Lock()
	if tag != c.sessionID {
		c.mu.Unlock()
		return nil, ErrStaleSession
	}
	comp := c.completion
	if comp == nil {
		c.mu.Unlock()
		return nil, ErrNotCompleted
	}
	if comp.persistTried {
		out := comp.clone()
		c.mu.Unlock()
		return out, out.PersistErr
	}
	comp.persistTried = true
	in := comp.Input
	in.Answers = in.Answers.Clone()
	c.mu.Unlock()

	saved, err := c.opts.Attempts.PersistAttempt(ctx, in)

	c.mu.Lock()
	if err != nil {
		comp.PersistErr = fmt.Errorf("%w: %w", ErrPersistence, err)
	} else {
		if saved.CategoryName == "" {
			saved.CategoryName = comp.Category.Name
		}
		comp.Attempt = &saved
	}
	out := comp.clone()
	c.mu.Unlock()

	if err != nil {
		return out, out.PersistErr
	}
	if c.opts.Publisher != nil {
		c.opts.Publisher.Publish(EventAttemptCreated, saved)
	}
	return out, nil
}

// LoadCategoryHistory fetches the user's attempts for categoryID, newest
// first. On failure it returns an empty list and an ErrHistoryFetch error.
func (c *Controller) LoadCategoryHistory(ctx context.Context, categoryID string) ([]quiz.Attempt, error) {
	attempts, err := c.opts.History.FetchAttemptHistory(ctx, c.profile.UserID, categoryID)
	if err != nil {
		return []quiz.Attempt{}, fmt.Errorf("%w: %w", ErrHistoryFetch, err)
	}
	if attempts == nil {
		attempts = []quiz.Attempt{}
	}
	quiz.SortNewestFirst(attempts)

	c.mu.Lock()
	c.history = attempts
	c.historyCategory = categoryID
	c.mu.Unlock()

	return cloneAttempts(attempts), nil
}

// RefreshHistoryAfterCompletion reloads the history of the completed
// category once its attempt has been saved.
func (c *Controller) RefreshHistoryAfterCompletion(ctx context.Context) ([]quiz.Attempt, error) {
	c.mu.Lock()
	comp := c.completion
	if comp == nil || !comp.Persisted() {
		c.mu.Unlock()
		return nil, ErrNotCompleted
	}
	categoryID := comp.Category.ID
	c.mu.Unlock()
	return c.LoadCategoryHistory(ctx, categoryID)
}

// Finish advances the quiz and, when that completes it, saves the attempt
// and reloads the category history. A failed save still returns the
// completion along with the ErrPersistence error.
func (c *Controller) Finish(ctx context.Context) (*Completion, error) {
	comp, err := c.Next()
	if err != nil || comp == nil {
		return comp, err
	}
	saved, err := c.PersistAttempt(ctx, comp.SessionID)
	if err != nil {
		if saved == nil {
			return comp, err
		}
		return saved, err
	}
	if _, err := c.RefreshHistoryAfterCompletion(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

// Restart discards the current quiz and begins a fresh session tag. Any
// in-flight result for the old tag becomes stale.
func (c *Controller) Restart() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset()
	c.sessionID = c.opts.NewID()
	c.category = quiz.Category{}
	c.completion = nil
	return c.sessionID
}

// History returns the last loaded history and its category.
func (c *Controller) History() (string, []quiz.Attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historyCategory, cloneAttempts(c.history)
}

// Completion returns the outcome of the current session, if completed.
func (c *Controller) Completion() (*Completion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completion == nil {
		return nil, false
	}
	return c.completion.clone(), true
}

// View is a point-in-time copy of a controller for rendering.
type View struct {
	SessionID  string        `json:"session_id"`
	UserID     string        `json:"user_id"`
	Quiz       quiz.Snapshot `json:"quiz"`
	Completion *Completion   `json:"completion,omitempty"`
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		SessionID:  c.sessionID,
		UserID:     c.profile.UserID,
		Quiz:       c.state.Snapshot(),
		Completion: c.completion.clone(),
	}
}

func cloneAttempts(in []quiz.Attempt) []quiz.Attempt {
	out := make([]quiz.Attempt, len(in))
	copy(out, in)
	return out
}
