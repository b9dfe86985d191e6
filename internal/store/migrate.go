package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table layout, declared the way ent's generated migrate package declares
// it so schema.Migrate can diff and create it.
var (
	categoriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "icon", Type: field.TypeString, Default: ""},
	}
	categoriesTable = &schema.Table{
		Name:       "categories",
		Columns:    categoriesColumns,
		PrimaryKey: []*schema.Column{categoriesColumns[0]},
	}

	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "question", Type: field.TypeString},
		{Name: "options", Type: field.TypeString},
		{Name: "correct_answer", Type: field.TypeString},
		{Name: "explanation", Type: field.TypeString, Default: ""},
		{Name: "difficulty", Type: field.TypeInt, Default: 0},
		{Name: "category_id", Type: field.TypeString},
	}
	questionsTable = &schema.Table{
		Name:       "questions",
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "questions_categories_questions",
				Columns:    []*schema.Column{questionsColumns[6]},
				RefColumns: []*schema.Column{categoriesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "question_category_id", Columns: []*schema.Column{questionsColumns[6]}},
		},
	}

	// Attempts keep no foreign key so history survives a category being
	// re-seeded or removed.
	attemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "category_id", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "answers", Type: field.TypeString},
		{Name: "time_taken_secs", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeInt64},
	}
	attemptsTable = &schema.Table{
		Name:       "quiz_attempts",
		Columns:    attemptsColumns,
		PrimaryKey: []*schema.Column{attemptsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "quizattempt_user_id_category_id_created_at",
				Columns: []*schema.Column{attemptsColumns[2], attemptsColumns[3], attemptsColumns[8]},
			},
		},
	}

	kvColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString},
		{Name: "value", Type: field.TypeString},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	kvTable = &schema.Table{
		Name:       "kv",
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}

	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventsColumns[5]}},
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmEventsColumns[2]}},
		},
	}

	tables = []*schema.Table{
		categoriesTable,
		questionsTable,
		attemptsTable,
		kvTable,
		llmEventsTable,
	}
)

func init() {
	questionsTable.ForeignKeys[0].RefTable = categoriesTable
}

func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
