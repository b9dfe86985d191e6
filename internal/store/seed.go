package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/unisupport/unisupport/internal/quiz"
)

//go:embed seed/default.json
var defaultSeed []byte

// ErrInvalidSeed is returned by ParseSeed for malformed seed files.
var ErrInvalidSeed = errors.New("invalid seed file")

// SeedFile is the JSON layout accepted by Import.
type SeedFile struct {
	Categories []SeedCategory `json:"categories"`
}

// SeedCategory is a category with its question set.
type SeedCategory struct {
	quiz.Category
	Questions []quiz.Question `json:"questions"`
}

// ImportResult counts what Import wrote.
type ImportResult struct {
	Categories int
	Questions  int
}

// DefaultSeed returns the built-in question bank.
func DefaultSeed() (SeedFile, error) {
	var f SeedFile
	if err := json.Unmarshal(defaultSeed, &f); err != nil {
		return SeedFile{}, fmt.Errorf("decode built-in seed: %w", err)
	}
	return f, f.Validate()
}

// ParseSeed decodes and validates a seed file.
func ParseSeed(r io.Reader) (SeedFile, error) {
	var f SeedFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return SeedFile{}, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return f, f.Validate()
}

// Validate checks IDs are present and unique and that every correct answer
// names one of its question's options.
func (f SeedFile) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidSeed, fmt.Sprintf(format, args...))
	}

	categories := map[string]bool{}
	questions := map[string]bool{}
	for _, c := range f.Categories {
		if c.ID == "" || c.Name == "" {
			return invalid("category needs an id and a name")
		}
		if categories[c.ID] {
			return invalid("duplicate category %q", c.ID)
		}
		categories[c.ID] = true

		for _, q := range c.Questions {
			switch {
			case q.ID == "":
				return invalid("question without id in %q", c.ID)
			case questions[q.ID]:
				return invalid("duplicate question %q", q.ID)
			case len(q.Options) < 2:
				return invalid("question %q needs at least two options", q.ID)
			case !q.HasOption(q.Correct):
				return invalid("question %q: correct answer %q is not an option", q.ID, q.Correct)
			}
			questions[q.ID] = true
		}
	}
	return nil
}

// Import upserts every category and replaces its question set in a single
// transaction. Attempts are never touched.
func (s *Store) Import(ctx context.Context, f SeedFile) (ImportResult, error) {
	if err := f.Validate(); err != nil {
		return ImportResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	var res ImportResult
	for _, c := range f.Categories {
		if err := importCategory(ctx, tx, c); err != nil {
			return ImportResult{}, fmt.Errorf("import category %s: %w", c.ID, err)
		}
		res.Categories++
		res.Questions += len(c.Questions)
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

func importCategory(ctx context.Context, tx *sql.Tx, c SeedCategory) error {
	exec := func(query string, args []any) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}

	query, args := builder().
		Insert(categoriesTable.Name).
		Columns("id", "name", "description", "icon").
		Values(c.ID, c.Name, c.Description, c.Icon).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := exec(query, args); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	query, args = builder().
		Delete(questionsTable.Name).
		Where(entsql.EQ("category_id", c.ID)).
		Query()
	if err := exec(query, args); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for _, q := range c.Questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options of %s: %w", q.ID, err)
		}
		query, args := builder().
			Insert(questionsTable.Name).
			Columns("id", "category_id", "question", "options", "correct_answer", "explanation", "difficulty").
			Values(q.ID, c.ID, q.Text, string(options), q.Correct, q.Explanation, q.Difficulty).
			Query()
		if err := exec(query, args); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}
	return nil
}
