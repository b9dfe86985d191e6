// Package results shows a completed quiz and saves its attempt.
package results

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/router"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/screens/careers"
	historyscreen "github.com/unisupport/unisupport/internal/screens/history"
	"github.com/unisupport/unisupport/internal/session"
	"github.com/unisupport/unisupport/internal/ui/components"
	"github.com/unisupport/unisupport/internal/ui/layout"
	"github.com/unisupport/unisupport/internal/ui/theme"
)

type savedMsg struct {
	completion *session.Completion
	err        error
	history    []quiz.Attempt
}

// ResultsScreen shows the score and answer review of a completed quiz.
type ResultsScreen struct {
	deps  *screen.Deps
	ctrl  *session.Controller
	comp  *session.Completion
	retry func() screen.Screen

	saving  bool
	saveErr error
	history []quiz.Attempt
	scroll  int
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// New creates the results screen for comp. retry builds a fresh quiz of
// the same category.
func New(deps *screen.Deps, ctrl *session.Controller, comp *session.Completion, retry func() screen.Screen) *ResultsScreen {
	return &ResultsScreen{
		deps:   deps,
		ctrl:   ctrl,
		comp:   comp,
		retry:  retry,
		saving: true,
	}
}

// Init saves the attempt and reloads the category history.
func (s *ResultsScreen) Init() tea.Cmd {
	tag := s.comp.SessionID
	return func() tea.Msg {
		ctx := context.Background()
		saved, err := s.ctrl.PersistAttempt(ctx, tag)
		if err != nil {
			return savedMsg{completion: saved, err: err}
		}
		hist, _ := s.ctrl.RefreshHistoryAfterCompletion(ctx)
		return savedMsg{completion: saved, history: hist}
	}
}

func (s *ResultsScreen) Title() string {
	return "Results"
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "r", Description: "Retry"},
		{Key: "h", Description: "History"},
		{Key: "c", Description: "Careers"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		s.saving = false
		if msg.completion != nil {
			s.comp = msg.completion
		}
		s.saveErr = msg.err
		s.history = msg.history
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.scroll > 0 {
				s.scroll--
			}
		case "down", "j":
			if s.scroll < len(s.comp.Review)-1 {
				s.scroll++
			}
		case "r":
			if s.retry != nil {
				next := s.retry()
				return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			}
		case "h":
			if s.saving {
				return s, nil
			}
			next := historyscreen.New(s.deps, s.comp.Category.ID)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		case "c":
			if s.saving {
				return s, nil
			}
			next := careers.New(s.deps, s.comp.Category.ID)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	c := s.comp
	contentWidth := min(width-8, 76)
	center := func(str string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, str)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render(c.Category.Name + " complete"))
	b.WriteString("\n\n")

	band := lipgloss.NewStyle().Foreground(theme.BandColor(c.Band)).Bold(true).Render(theme.BandLabel(c.Band))
	b.WriteString(center(fmt.Sprintf("Score %d/%d  ", c.Input.Score, c.Input.TotalQuestions) + band))
	b.WriteString("\n")
	if !layout.IsCompactHeight(height) {
		bar := components.NewProgressBar("", c.Input.Score, c.Input.TotalQuestions, true, contentWidth).
			WithFill(theme.BandColor(c.Band))
		b.WriteString(center(bar.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(center(s.saveStatus()))
	b.WriteString("\n\n")

	// Everything below the header lines is the review, windowed by scroll.
	rows := max(height-lipgloss.Height(b.String())-1, 3)
	var review []string
	for i, item := range c.Review[s.scroll:] {
		review = append(review, reviewLines(s.scroll+i+1, item, contentWidth)...)
		if len(review) >= rows {
			break
		}
	}
	if len(review) > rows {
		review = review[:rows]
	}
	b.WriteString(center(lipgloss.NewStyle().Width(contentWidth).Render(strings.Join(review, "\n"))))
	return b.String()
}

func (s *ResultsScreen) saveStatus() string {
	switch {
	case s.saving:
		return theme.Hint.Render("Saving your result...")
	case s.saveErr != nil:
		msg := "Your result could not be saved."
		if !errors.Is(s.saveErr, session.ErrPersistence) {
			msg = "Could not save: " + s.saveErr.Error()
		}
		return theme.Notice.Render(msg)
	}
	status := "Saved to your history."
	if n := len(s.history); n > 1 {
		status += fmt.Sprintf(" %d attempts so far.", n)
	}
	return theme.Correct.Render(status)
}

func reviewLines(n int, item quiz.ReviewItem, width int) []string {
	mark := theme.Incorrect.Render("✗")
	if item.Correct {
		mark = theme.Correct.Render("✓")
	}
	text := lipgloss.NewStyle().Width(width - 4).Foreground(theme.Text).
		Render(fmt.Sprintf("%d. %s", n, item.Question.Text))

	chosen := "not answered"
	if item.Answered {
		chosen = item.Chosen + ") " + item.Question.Options[item.Chosen]
	}
	lines := []string{mark + " " + text}
	lines = append(lines, theme.Hint.Render("   Your answer: "+chosen))
	if !item.Correct {
		correct := item.Question.Correct + ") " + item.Question.Options[item.Question.Correct]
		lines = append(lines, theme.Hint.Render("   Correct: "+correct))
		if item.Question.Explanation != "" {
			lines = append(lines, lipgloss.NewStyle().Width(width-3).Foreground(theme.TextDim).
				Render("   "+item.Question.Explanation))
		}
	}
	return append(lines, "")
}
