package quiz

import (
	"maps"
	"slices"
	"time"
)

// Category groups the questions of one assessment, e.g. "Programming Fundamentals".
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Question is a single multiple-choice item of a category's question set.
type Question struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Text       string `json:"question"`

	// Options maps an option key ("A", "B", ...) to its text.
	Options map[string]string `json:"options"`

	// Correct is the key of the correct option.
	Correct string `json:"correct_answer"`

	Explanation string `json:"explanation,omitempty"`

	// Difficulty only affects the order in which a set is served.
	Difficulty int `json:"difficulty,omitempty"`
}

// OptionKeys returns the question's option keys in lexical order.
func (q Question) OptionKeys() []string {
	return slices.Sorted(maps.Keys(q.Options))
}

// HasOption reports whether key is one of the question's option keys.
func (q Question) HasOption(key string) bool {
	_, ok := q.Options[key]
	return ok
}

// AnswerMap maps a question ID to the selected option key.
type AnswerMap map[string]string

// Clone returns an independent copy of the map. A nil map clones to an empty one.
func (a AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(a))
	maps.Copy(out, a)
	return out
}

// AttemptInput is a completed attempt before it has been persisted.
type AttemptInput struct {
	UserID         string    `json:"user_id"`
	CategoryID     string    `json:"category_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Answers        AnswerMap `json:"answers"`
	TimeTakenSecs  int       `json:"time_taken_secs"`
	CreatedAt      time.Time `json:"created_at"`
}

// Attempt is a persisted attempt record. Attempts are append-only.
type Attempt struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CategoryID     string    `json:"category_id"`
	CategoryName   string    `json:"category_name,omitempty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Answers        AnswerMap `json:"answers"`
	TimeTakenSecs  int       `json:"time_taken_secs"`
	CreatedAt      time.Time `json:"created_at"`
}

// Percentage returns the attempt's score as a rounded percentage.
func (a Attempt) Percentage() int {
	return Percentage(a.Score, a.TotalQuestions)
}

// SortNewestFirst orders attempts by creation time, newest first. Ties are
// broken by ID so the order is stable across calls.
func SortNewestFirst(attempts []Attempt) {
	slices.SortStableFunc(attempts, func(a, b Attempt) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}

// SortForServing orders a question set by difficulty, then ID.
func SortForServing(questions []Question) {
	slices.SortStableFunc(questions, func(a, b Question) int {
		if a.Difficulty != b.Difficulty {
			return a.Difficulty - b.Difficulty
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
