package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/router"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/screens/assessment"
	"github.com/unisupport/unisupport/internal/screens/careers"
	historyscreen "github.com/unisupport/unisupport/internal/screens/history"
	"github.com/unisupport/unisupport/internal/screens/profile"
	"github.com/unisupport/unisupport/internal/ui/components"
	"github.com/unisupport/unisupport/internal/ui/layout"
	"github.com/unisupport/unisupport/internal/ui/theme"
)

// recentLimit bounds the attempts scanned for each category's last score.
const recentLimit = 50

type loadedMsg struct {
	categories []quiz.Category
	latest     map[string]quiz.Attempt
	err        error
}

// HomeScreen lists the assessments and the other destinations.
type HomeScreen struct {
	deps       *screen.Deps
	menu       components.Menu
	categories []quiz.Category
	latest     map[string]quiz.Attempt
	loaded     bool
	errMsg     string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps *screen.Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	h.menu = components.NewMenu(h.items())
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.load
}

// Resume reloads the last scores after a quiz.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.load
}

func (h *HomeScreen) load() tea.Msg {
	ctx := context.Background()

	cats, err := h.deps.Backend.ListCategories(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}

	// Recent attempts are newest first, so the first per category wins.
	latest := make(map[string]quiz.Attempt)
	recent, err := h.deps.Backend.RecentAttempts(ctx, h.deps.Profile.UserID, recentLimit)
	if err == nil {
		for _, a := range recent {
			if _, ok := latest[a.CategoryID]; !ok {
				latest[a.CategoryID] = a
			}
		}
	}
	return loadedMsg{categories: cats, latest: latest}
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		h.loaded = true
		if msg.err != nil {
			h.errMsg = msg.err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.categories = msg.categories
		h.latest = msg.latest
		selected := h.menu.Selected
		h.menu = components.NewMenu(h.items())
		if selected < len(h.menu.Items) {
			h.menu.Selected = selected
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) items() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(h.categories)+4)
	for _, c := range h.categories {
		hint := "not taken yet"
		if a, ok := h.latest[c.ID]; ok {
			hint = fmt.Sprintf("last %d/%d (%d%%)", a.Score, a.TotalQuestions, a.Percentage())
		}
		items = append(items, components.MenuItem{
			Label: c.Name,
			Hint:  hint,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: assessment.New(h.deps, c)}
				}
			},
		})
	}

	items = append(items,
		components.MenuItem{Label: "History", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: historyscreen.New(h.deps, "")}
			}
		}},
		components.MenuItem{Label: "Career suggestions", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: careers.New(h.deps, "")}
			}
		}},
		components.MenuItem{Label: "Profile", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: profile.New(h.deps)}
			}
		}},
		components.MenuItem{Label: "Exit", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("Skill assessments"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render(
		fmt.Sprintf("Welcome, %s. Pick an assessment to begin.", h.deps.Profile.DisplayName())))
	b.WriteString("\n\n")

	switch {
	case h.errMsg != "":
		b.WriteString(layout.RenderCentered(width, theme.Error, "Could not load assessments: "+h.errMsg))
		b.WriteString("\n\n")
	case !h.loaded:
		b.WriteString(layout.RenderCentered(width, theme.TextDim, "Loading assessments..."))
		b.WriteString("\n\n")
	case len(h.categories) == 0:
		b.WriteString(layout.RenderCentered(width, theme.TextDim, "No assessments yet. Run `unisupport seed` to add some."))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, h.menu.View()))
	return b.String()
}
