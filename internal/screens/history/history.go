package history

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/router"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/session"
	"github.com/unisupport/unisupport/internal/ui/layout"
	"github.com/unisupport/unisupport/internal/ui/theme"
)

// recentLimit bounds the "All" view.
const recentLimit = 50

type categoriesLoadedMsg struct {
	categories []quiz.Category
	err        error
}

type historyLoadedMsg struct {
	categoryID string
	attempts   []quiz.Attempt
	err        error
}

// HistoryScreen lists past attempts, for one category or all of them.
type HistoryScreen struct {
	deps *screen.Deps
	ctrl *session.Controller

	// filters[0] is "All", with an empty ID.
	filters []quiz.Category
	filter  int

	attempts []quiz.Attempt
	selected int
	expanded map[string]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen showing categoryID first, or every
// category when it is empty.
func New(deps *screen.Deps, categoryID string) *HistoryScreen {
	s := &HistoryScreen{
		deps:     deps,
		ctrl:     deps.NewController(),
		filters:  []quiz.Category{{Name: "All"}},
		expanded: make(map[string]bool),
	}
	if categoryID != "" {
		s.filters = append(s.filters, quiz.Category{ID: categoryID, Name: categoryID})
		s.filter = 1
	}
	return s
}

func (s *HistoryScreen) Init() tea.Cmd {
	return tea.Batch(s.loadCategories, s.load(s.current().ID))
}

func (s *HistoryScreen) loadCategories() tea.Msg {
	cats, err := s.deps.Backend.ListCategories(context.Background())
	return categoriesLoadedMsg{categories: cats, err: err}
}

func (s *HistoryScreen) load(categoryID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if categoryID == "" {
			attempts, err := s.deps.Backend.RecentAttempts(ctx, s.deps.Profile.UserID, recentLimit)
			quiz.SortNewestFirst(attempts)
			return historyLoadedMsg{attempts: attempts, err: err}
		}
		attempts, err := s.ctrl.LoadCategoryHistory(ctx, categoryID)
		return historyLoadedMsg{categoryID: categoryID, attempts: attempts, err: err}
	}
}

func (s *HistoryScreen) current() quiz.Category {
	return s.filters[s.filter]
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Category"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Answers"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesLoadedMsg:
		if msg.err != nil {
			return s, nil
		}
		current := s.current()
		s.filters = append([]quiz.Category{{Name: "All"}}, msg.categories...)
		s.filter = slices.IndexFunc(s.filters, func(c quiz.Category) bool { return c.ID == current.ID })
		if s.filter < 0 {
			s.filters = append(s.filters, current)
			s.filter = len(s.filters) - 1
		}
		return s, nil

	case historyLoadedMsg:
		if msg.categoryID != s.current().ID {
			return s, nil
		}
		s.loaded = true
		s.errMsg = ""
		if msg.err != nil {
			s.errMsg = msg.err.Error()
		}
		s.attempts = msg.attempts
		s.selected = 0
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "left", "h":
			return s, s.switchFilter(-1)
		case "right", "l":
			return s, s.switchFilter(1)
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.attempts)-1 {
				s.selected++
			}
		case "enter":
			if s.selected < len(s.attempts) {
				id := s.attempts[s.selected].ID
				s.expanded[id] = !s.expanded[id]
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) switchFilter(delta int) tea.Cmd {
	next := (s.filter + delta + len(s.filters)) % len(s.filters)
	if next == s.filter {
		return nil
	}
	s.filter = next
	s.loaded = false
	s.attempts = nil
	return s.load(s.current().ID)
}

func (s *HistoryScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderFilters()))
	b.WriteString("\n\n")

	switch {
	case s.errMsg != "":
		b.WriteString(layout.RenderCentered(width, theme.Error, "Error: "+s.errMsg))
		return b.String()
	case !s.loaded:
		b.WriteString(layout.RenderCentered(width, theme.TextDim, "Loading history..."))
		return b.String()
	case len(s.attempts) == 0:
		b.WriteString(layout.RenderCentered(width, theme.TextDim, "No attempts yet. Take an assessment!"))
		return b.String()
	}

	latest := s.attempts[0]
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Subtitle.Render(
		fmt.Sprintf("Latest: %s %d/%d (%d%%) on %s",
			categoryName(latest), latest.Score, latest.TotalQuestions, latest.Percentage(),
			latest.CreatedAt.Local().Format("Jan 02, 2006")))))
	b.WriteString("\n\n")

	for i, a := range s.attempts {
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}
		line := fmt.Sprintf("%s%s  %-26s %d/%d  %3d%%  %s",
			prefix,
			a.CreatedAt.Local().Format("Jan 02, 2006 15:04"),
			categoryName(a),
			a.Score, a.TotalQuestions, a.Percentage(),
			formatDuration(a.TimeTakenSecs))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[a.ID] {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(answersLine(a.Answers))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *HistoryScreen) renderFilters() string {
	parts := make([]string, len(s.filters))
	for i, c := range s.filters {
		if i == s.filter {
			parts[i] = theme.Selected.Render("[" + c.Name + "]")
		} else {
			parts[i] = theme.Hint.Render(c.Name)
		}
	}
	return strings.Join(parts, "  ")
}

func categoryName(a quiz.Attempt) string {
	if a.CategoryName != "" {
		return a.CategoryName
	}
	return a.CategoryID
}

func formatDuration(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func answersLine(answers quiz.AnswerMap) string {
	if len(answers) == 0 {
		return "    No answers recorded"
	}
	parts := make([]string, 0, len(answers))
	for _, id := range slices.Sorted(maps.Keys(answers)) {
		parts = append(parts, id+": "+answers[id])
	}
	return "    " + strings.Join(parts, "  ")
}
