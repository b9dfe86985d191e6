// Package profile lets the user edit the profile recommendations are
// generated for.
package profile

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/router"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/ui/components"
	"github.com/unisupport/unisupport/internal/ui/layout"
	"github.com/unisupport/unisupport/internal/ui/theme"
)

const (
	fieldName = iota
	fieldEmail
	fieldMajor
	fieldYear
	fieldInterests
	fieldSkills
	fieldCareers
)

type savedMsg struct {
	profile auth.Profile
	err     error
}

// ProfileScreen is a form over the current profile.
type ProfileScreen struct {
	deps   *screen.Deps
	fields []components.TextInput
	focus  int
	status string
	failed bool
}

var _ screen.Screen = (*ProfileScreen)(nil)
var _ screen.KeyHintProvider = (*ProfileScreen)(nil)

// New creates the form filled from deps.Profile.
func New(deps *screen.Deps) *ProfileScreen {
	p := deps.Profile
	year := ""
	if p.YearOfStudy > 0 {
		year = strconv.Itoa(p.YearOfStudy)
	}
	s := &ProfileScreen{
		deps: deps,
		fields: []components.TextInput{
			fieldName:      components.NewTextInput("Full name", "Ada Lovelace", p.FullName, 80),
			fieldEmail:     components.NewTextInput("Email", "ada@example.edu", p.Email, 120),
			fieldMajor:     components.NewTextInput("Major", "Computer Science", p.Major, 80),
			fieldYear:      components.NewTextInput("Year of study", "2", year, 2),
			fieldInterests: components.NewTextInput("Interests", "comma separated", strings.Join(p.Interests, ", "), 200),
			fieldSkills:    components.NewTextInput("Skills", "comma separated", strings.Join(p.Skills, ", "), 200),
			fieldCareers:   components.NewTextInput("Career preferences", "comma separated", strings.Join(p.CareerPreferences, ", "), 200),
		},
	}
	if deps.Profiles == nil {
		s.status = "Profile changes will not be kept after you quit."
	}
	return s
}

func (s *ProfileScreen) Init() tea.Cmd {
	return s.fields[s.focus].Focus()
}

func (s *ProfileScreen) Title() string {
	return "Profile"
}

func (s *ProfileScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Save"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProfileScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		if msg.err != nil {
			s.status = "Could not save profile: " + msg.err.Error()
			s.failed = true
			return s, nil
		}
		s.deps.Profile = msg.profile
		s.status = "Profile saved."
		s.failed = false
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab", "down":
			return s, s.moveFocus(1)
		case "shift+tab", "up":
			return s, s.moveFocus(-1)
		case "enter":
			return s, s.save()
		}
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *ProfileScreen) moveFocus(delta int) tea.Cmd {
	s.fields[s.focus].Blur()
	s.focus = (s.focus + delta + len(s.fields)) % len(s.fields)
	return s.fields[s.focus].Focus()
}

func (s *ProfileScreen) save() tea.Cmd {
	p, err := s.profile()
	if err != nil {
		s.status = err.Error()
		s.failed = true
		return nil
	}
	store := s.deps.Profiles
	return func() tea.Msg {
		if store == nil {
			return savedMsg{profile: p}
		}
		return savedMsg{profile: p, err: auth.SaveProfile(context.Background(), store, p)}
	}
}

// profile builds the edited profile. The user ID never changes.
func (s *ProfileScreen) profile() (auth.Profile, error) {
	p := s.deps.Profile
	p.FullName = s.fields[fieldName].Value()
	p.Email = s.fields[fieldEmail].Value()
	p.Major = s.fields[fieldMajor].Value()
	p.YearOfStudy = 0
	if v := s.fields[fieldYear].Value(); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 1 {
			return auth.Profile{}, errors.New("year of study must be a positive number")
		}
		p.YearOfStudy = year
	}
	p.Interests = splitList(s.fields[fieldInterests].Value())
	p.Skills = splitList(s.fields[fieldSkills].Value())
	p.CareerPreferences = splitList(s.fields[fieldCareers].Value())
	return p, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (s *ProfileScreen) View(width, height int) string {
	labelWidth := 0
	for _, f := range s.fields {
		labelWidth = max(labelWidth, lipgloss.Width(f.Label))
	}

	var form strings.Builder
	for i, f := range s.fields {
		if i > 0 {
			form.WriteString("\n\n")
		}
		form.WriteString(f.View(labelWidth))
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render("Signed in as " + s.deps.Profile.UserID))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.Card.Width(min(width-8, 76)).Render(form.String())))
	b.WriteString("\n")
	if s.status != "" {
		style := theme.Hint
		if s.failed {
			style = theme.Failure
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(s.status)))
	}
	return b.String()
}
