package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/unisupport/unisupport/internal/quiz"
)

// ErrInvalidAttempt is returned for attempts that violate the record
// invariants (no user, score above total).
var ErrInvalidAttempt = errors.New("invalid attempt")

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]quiz.Category, error) {
	query, args := builder().
		Select("id", "name", "description", "icon").
		From(entsql.Table(categoriesTable.Name)).
		OrderBy("name", "id").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []quiz.Category
	for rows.Next() {
		var c quiz.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns the category with id. The bool is false when it does
// not exist.
func (s *Store) GetCategory(ctx context.Context, id string) (quiz.Category, bool, error) {
	query, args := builder().
		Select("id", "name", "description", "icon").
		From(entsql.Table(categoriesTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	var c quiz.Category
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Name, &c.Description, &c.Icon)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return quiz.Category{}, false, nil
	case err != nil:
		return quiz.Category{}, false, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, true, nil
}

// FetchQuestions returns the question set of a category ordered by
// difficulty, then ID. An unknown category yields an empty set.
func (s *Store) FetchQuestions(ctx context.Context, categoryID string) ([]quiz.Question, error) {
	query, args := builder().
		Select("id", "category_id", "question", "options", "correct_answer", "explanation", "difficulty").
		From(entsql.Table(questionsTable.Name)).
		Where(entsql.EQ("category_id", categoryID)).
		OrderBy("difficulty", "id").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []quiz.Question
	for rows.Next() {
		var q quiz.Question
		var options string
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Text, &options, &q.Correct, &q.Explanation, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// PersistAttempt appends a completed attempt and returns the stored record
// with its ID and category name. CreatedAt is kept at millisecond
// precision; a zero CreatedAt is set to now.
func (s *Store) PersistAttempt(ctx context.Context, in quiz.AttemptInput) (quiz.Attempt, error) {
	switch {
	case in.UserID == "":
		return quiz.Attempt{}, fmt.Errorf("%w: missing user id", ErrInvalidAttempt)
	case in.Score < 0 || in.Score > in.TotalQuestions:
		return quiz.Attempt{}, fmt.Errorf("%w: score %d of %d", ErrInvalidAttempt, in.Score, in.TotalQuestions)
	}

	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = time.UnixMilli(created.UnixMilli()).UTC()

	answers, err := json.Marshal(in.Answers.Clone())
	if err != nil {
		return quiz.Attempt{}, fmt.Errorf("encode answers: %w", err)
	}

	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return quiz.Attempt{}, err
	}

	a := quiz.Attempt{
		ID:             uuid.NewString(),
		UserID:         in.UserID,
		CategoryID:     in.CategoryID,
		Score:          in.Score,
		TotalQuestions: in.TotalQuestions,
		Answers:        in.Answers.Clone(),
		TimeTakenSecs:  in.TimeTakenSecs,
		CreatedAt:      created,
	}

	query, args := builder().
		Insert(attemptsTable.Name).
		Columns("id", "sequence", "user_id", "category_id", "score", "total_questions", "answers", "time_taken_secs", "created_at").
		Values(a.ID, seqNum, a.UserID, a.CategoryID, a.Score, a.TotalQuestions, string(answers), a.TimeTakenSecs, created.UnixMilli()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return quiz.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}

	if c, ok, err := s.GetCategory(ctx, a.CategoryID); err == nil && ok {
		a.CategoryName = c.Name
	}
	return a, nil
}

// FetchAttemptHistory returns a user's attempts in one category, newest
// first.
func (s *Store) FetchAttemptHistory(ctx context.Context, userID, categoryID string) ([]quiz.Attempt, error) {
	return s.queryAttempts(ctx, 0, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("category_id", categoryID),
	))
}

// RecentAttempts returns a user's most recent attempts across categories,
// newest first. A non-positive limit returns all of them.
func (s *Store) RecentAttempts(ctx context.Context, userID string, limit int) ([]quiz.Attempt, error) {
	return s.queryAttempts(ctx, limit, entsql.EQ("user_id", userID))
}

func (s *Store) queryAttempts(ctx context.Context, limit int, where *entsql.Predicate) ([]quiz.Attempt, error) {
	// Alias both tables before building columns; LeftJoin renames an
	// unaliased table.
	t := builder().Table(attemptsTable.Name).As("a")
	c := builder().Table(categoriesTable.Name).As("c")

	sel := builder().
		Select(
			t.C("id"), t.C("user_id"), t.C("category_id"),
			entsql.As("COALESCE("+c.C("name")+", '')", "category_name"),
			t.C("score"), t.C("total_questions"), t.C("answers"),
			t.C("time_taken_secs"), t.C("created_at"),
		).
		From(t)
	sel.LeftJoin(c).On(t.C("category_id"), c.C("id"))
	sel.Where(where).OrderBy(entsql.Desc(t.C("created_at")), entsql.Desc(t.C("sequence")))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	out := []quiz.Attempt{}
	for rows.Next() {
		var a quiz.Attempt
		var answers string
		var created int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.CategoryID, &a.CategoryName, &a.Score,
			&a.TotalQuestions, &answers, &a.TimeTakenSecs, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of attempt %s: %w", a.ID, err)
		}
		a.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
