// Package assessment is the screen a quiz is taken on.
package assessment

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
	"github.com/unisupport/unisupport/internal/screens/results"
	"github.com/unisupport/unisupport/internal/session"
	"github.com/unisupport/unisupport/internal/ui/components"
	"github.com/unisupport/unisupport/internal/ui/layout"
	"github.com/unisupport/unisupport/internal/ui/theme"
)

type questionsLoadedMsg struct {
	tag       string
	questions []quiz.Question
	err       error
}

// AssessmentScreen runs one quiz of a category.
type AssessmentScreen struct {
	deps     *screen.Deps
	ctrl     *session.Controller
	category quiz.Category

	choice      components.MultiChoice
	loading     bool
	errMsg      string
	notice      string
	confirmQuit bool
}

var _ screen.Screen = (*AssessmentScreen)(nil)
var _ screen.KeyHintProvider = (*AssessmentScreen)(nil)

// New creates the screen for category. Questions load on Init.
func New(deps *screen.Deps, category quiz.Category) *AssessmentScreen {
	return &AssessmentScreen{
		deps:     deps,
		ctrl:     deps.NewController(),
		category: category,
		loading:  true,
	}
}

func (s *AssessmentScreen) Init() tea.Cmd {
	return s.fetch(s.ctrl.Select(s.category))
}

func (s *AssessmentScreen) fetch(tag string) tea.Cmd {
	return func() tea.Msg {
		qs, err := s.ctrl.FetchQuestionSet(context.Background(), s.category.ID)
		return questionsLoadedMsg{tag: tag, questions: qs, err: err}
	}
}

func (s *AssessmentScreen) Title() string {
	return s.category.Name
}

func (s *AssessmentScreen) KeyHints() []layout.KeyHint {
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "y", Description: "Abandon quiz"},
			{Key: "n", Description: "Keep going"},
		}
	}
	if s.loading || s.errMsg != "" {
		return []layout.KeyHint{
			{Key: "r", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Answer"},
		{Key: "←", Description: "Previous"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (s *AssessmentScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case questionsLoadedMsg:
		return s, s.applyQuestions(msg)
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *AssessmentScreen) applyQuestions(msg questionsLoadedMsg) tea.Cmd {
	// A result for an abandoned session must not start anything.
	if msg.tag != s.ctrl.SessionID() {
		return nil
	}
	s.loading = false
	err := msg.err
	if err == nil {
		err = s.ctrl.ApplyQuestionSet(msg.tag, msg.questions)
	}
	switch {
	case errors.Is(err, session.ErrStaleSession):
		return nil
	case errors.Is(err, session.ErrNoQuestionsAvailable):
		s.errMsg = "This assessment has no questions yet."
		return nil
	case err != nil:
		s.errMsg = "Could not load questions: " + err.Error()
		return nil
	}
	s.errMsg = ""
	s.syncChoice()
	return nil
}

func (s *AssessmentScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.ctrl.Restart()
			return pop
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return nil
	}

	if s.loading || s.errMsg != "" {
		switch key {
		case "esc":
			return pop
		case "r":
			if s.loading {
				return nil
			}
			s.loading = true
			s.errMsg = ""
			return s.fetch(s.ctrl.Select(s.category))
		}
		return nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return nil
	case "enter":
		return s.answer()
	case "left", "p", "backspace":
		s.notice = ""
		if err := s.ctrl.Previous(); err == nil {
			s.syncChoice()
		}
		return nil
	}

	s.choice, _ = s.choice.Update(msg)
	return nil
}

func (s *AssessmentScreen) answer() tea.Cmd {
	if err := s.ctrl.SelectCurrent(s.choice.SelectedKey()); err != nil {
		s.notice = err.Error()
		return nil
	}
	comp, err := s.ctrl.Next()
	if err != nil {
		s.notice = err.Error()
		return nil
	}
	s.notice = ""
	if comp != nil {
		retry := func() screen.Screen { return New(s.deps, s.category) }
		next := results.New(s.deps, s.ctrl, comp, retry)
		return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	}
	s.syncChoice()
	return nil
}

// syncChoice points the selector at the current question, with the cursor
// on the answer recorded earlier, if any.
func (s *AssessmentScreen) syncChoice() {
	v := s.ctrl.Snapshot().Quiz
	if v.Index >= len(v.Questions) {
		return
	}
	q := v.Questions[v.Index]
	s.choice = components.NewMultiChoice(q, v.Answers[q.ID])
}

func pop() tea.Msg { return router.PopScreenMsg{} }

func (s *AssessmentScreen) View(width, height int) string {
	if s.loading {
		return layout.RenderCentered(width, theme.TextDim, "Loading questions...")
	}
	if s.errMsg != "" {
		return layout.RenderCentered(width, theme.Error, s.errMsg)
	}

	v := s.ctrl.Snapshot().Quiz
	cardWidth := min(width-8, 76)

	var b strings.Builder
	b.WriteString("\n")
	bar := components.NewProgressBar(
		fmt.Sprintf("Question %d/%d", v.Index+1, v.Total),
		len(v.Answers), v.Total,
		true, cardWidth)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	card := theme.Card.Width(cardWidth).Render(s.choice.View(cardWidth - 6))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card))
	b.WriteString("\n")

	switch {
	case s.confirmQuit:
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Notice.Render("Abandon this quiz? Your answers will not be saved. (y/n)")))
	case s.notice != "":
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Failure.Render(s.notice)))
	}
	return b.String()
}
