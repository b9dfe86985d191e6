package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/session"
	"github.com/unisupport/unisupport/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Resumer is implemented by screens that reload their data when they
// become active again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// Backend is the storage the screens read and write.
type Backend interface {
	session.QuestionSource
	session.AttemptSink
	session.HistorySource

	ListCategories(ctx context.Context) ([]quiz.Category, error)
	RecentAttempts(ctx context.Context, userID string, limit int) ([]quiz.Attempt, error)
}

// Deps are shared by every screen of a running app. Screens hold a pointer
// so profile edits are seen everywhere.
type Deps struct {
	Backend Backend
	Profile auth.Profile

	// Profiles persists profile edits. Nil makes the profile read-only.
	Profiles auth.ProfileStore

	// Recommendations is the user's recommendation cache, nil when no LLM
	// provider is configured.
	Recommendations *history.Cache
}

// NewController creates a quiz controller for the current profile.
func (d *Deps) NewController() *session.Controller {
	return session.NewController(d.Profile, session.Options{
		Questions: d.Backend,
		Attempts:  d.Backend,
		History:   d.Backend,
	})
}
