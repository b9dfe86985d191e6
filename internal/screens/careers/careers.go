// Package careers shows career recommendations for the attempt history.
package careers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/router"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/ui/layout"
	"github.com/unisupport/unisupport/internal/ui/theme"
)

// recentLimit bounds the history sent when no category is chosen.
const recentLimit = 20

var errNoAttempts = errors.New("no attempts")

type loadedMsg struct {
	result history.Result
	err    error
}

// CareersScreen loads recommendations through the recommendation cache.
type CareersScreen struct {
	deps       *screen.Deps
	categoryID string

	result  *history.Result
	loading bool
	warning string
	errMsg  string
	scroll  int
}

var _ screen.Screen = (*CareersScreen)(nil)
var _ screen.KeyHintProvider = (*CareersScreen)(nil)

// New creates the screen for categoryID, or for every category when it is
// empty.
func New(deps *screen.Deps, categoryID string) *CareersScreen {
	return &CareersScreen{deps: deps, categoryID: categoryID}
}

func (s *CareersScreen) Init() tea.Cmd {
	return s.load(false)
}

func (s *CareersScreen) load(refresh bool) tea.Cmd {
	cache := s.deps.Recommendations
	if cache == nil {
		return nil
	}
	s.loading = true
	return func() tea.Msg {
		ctx := context.Background()
		attempts, err := s.attempts(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		if len(attempts) == 0 {
			return loadedMsg{err: errNoAttempts}
		}
		var res history.Result
		if refresh {
			res, err = cache.Refresh(ctx, s.deps.Profile, s.categoryID, attempts)
		} else {
			res, err = cache.Load(ctx, s.deps.Profile, s.categoryID, attempts)
		}
		return loadedMsg{result: res, err: err}
	}
}

func (s *CareersScreen) attempts(ctx context.Context) ([]quiz.Attempt, error) {
	if s.categoryID == "" {
		return s.deps.Backend.RecentAttempts(ctx, s.deps.Profile.UserID, recentLimit)
	}
	return s.deps.Backend.FetchAttemptHistory(ctx, s.deps.Profile.UserID, s.categoryID)
}

func (s *CareersScreen) Title() string {
	return "Career suggestions"
}

func (s *CareersScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "r", Description: "Regenerate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *CareersScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.applyResult(msg)
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "r":
			if !s.loading {
				return s, s.load(true)
			}
		case "up", "k":
			if s.scroll > 0 {
				s.scroll--
			}
		case "down", "j":
			if s.result != nil && s.scroll < len(s.result.Recommendations)-1 {
				s.scroll++
			}
		}
	}
	return s, nil
}

func (s *CareersScreen) applyResult(msg loadedMsg) {
	s.loading = false
	s.warning = ""
	s.errMsg = ""

	switch {
	case errors.Is(msg.err, errNoAttempts):
		s.errMsg = "Complete an assessment first, then come back for suggestions."
		return
	case msg.err == nil:
		s.result = &msg.result
		s.scroll = 0
		return
	}

	// Keep showing what we had; otherwise fall back to the stored slot when
	// it belongs to the same category.
	if s.result == nil {
		if cached, ok := s.deps.Recommendations.Cached(context.Background()); ok && cached.CategoryID == s.categoryID {
			s.result = &cached
		}
	}
	if s.result != nil {
		s.warning = "Could not refresh suggestions, showing saved ones: " + msg.err.Error()
		return
	}
	s.errMsg = "Could not generate suggestions: " + msg.err.Error()
}

func (s *CareersScreen) View(width, height int) string {
	if s.deps.Recommendations == nil {
		return layout.RenderCentered(width, theme.TextDim,
			"Career suggestions need an LLM provider. Set an API key and restart.")
	}
	if s.errMsg != "" {
		return layout.RenderCentered(width, theme.Error, s.errMsg)
	}
	if s.result == nil {
		return layout.RenderCentered(width, theme.TextDim, "Thinking about careers that suit you...")
	}

	contentWidth := min(width-8, 76)
	var b strings.Builder
	b.WriteString("\n")

	status := ""
	switch {
	case s.loading:
		status = theme.Hint.Render("Regenerating...")
	case s.warning != "":
		status = theme.Notice.Render(s.warning)
	case s.result.FromCache:
		status = theme.Hint.Render("Saved suggestions. Press r to regenerate.")
	}
	if status != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, status))
		b.WriteString("\n\n")
	}

	for i, r := range s.result.Recommendations[s.scroll:] {
		var card strings.Builder
		card.WriteString(theme.Selected.Render(fmt.Sprintf("%d. %s", s.scroll+i+1, r.Title)))
		card.WriteString("\n")
		card.WriteString(theme.Body.Render(r.Description))
		if r.Reasoning != "" {
			card.WriteString("\n\n")
			card.WriteString(theme.Hint.Render(r.Reasoning))
		}
		if len(r.SuggestedSkills) > 0 {
			card.WriteString("\n\n")
			card.WriteString(theme.Body.Render("Skills to learn: " + strings.Join(r.SuggestedSkills, ", ")))
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Card.Width(contentWidth).Render(card.String())))
		b.WriteString("\n")
	}
	return b.String()
}
