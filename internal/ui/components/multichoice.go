package components

import (
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/ui/theme"
)

// MultiChoice lets the taker highlight one option of a question. It only
// tracks the cursor; recording the answer is up to the owner.
type MultiChoice struct {
	Question quiz.Question
	Keys     []string
	Selected int

	// Chosen is the key recorded earlier for this question, if any.
	Chosen string
}

// NewMultiChoice creates a selector for q with the cursor on chosen, or on
// the first option when nothing was chosen yet.
func NewMultiChoice(q quiz.Question, chosen string) MultiChoice {
	keys := q.OptionKeys()
	selected := max(slices.Index(keys, chosen), 0)
	return MultiChoice{Question: q, Keys: keys, Selected: selected, Chosen: chosen}
}

// Update moves the cursor with the arrow keys or jumps to an option by its
// key ("a" or "A") or position ("1").
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
		return m, nil
	case "down", "j":
		if m.Selected < len(m.Keys)-1 {
			m.Selected++
		}
		return m, nil
	}

	if i := slices.Index(m.Keys, strings.ToUpper(key)); i >= 0 {
		m.Selected = i
	} else if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		if i := int(key[0] - '1'); i < len(m.Keys) {
			m.Selected = i
		}
	}
	return m, nil
}

// SelectedKey returns the option key under the cursor.
func (m MultiChoice) SelectedKey() string {
	if m.Selected < 0 || m.Selected >= len(m.Keys) {
		return ""
	}
	return m.Keys[m.Selected]
}

// View renders the question and its options.
func (m MultiChoice) View(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Foreground(theme.Text).
		Bold(true).
		Render(m.Question.Text))
	b.WriteString("\n\n")

	for i, key := range m.Keys {
		prefix := "  "
		if i == m.Selected {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, key, m.Question.Options[key])
		if key == m.Chosen {
			line += "  ✓"
		}

		if i == m.Selected {
			b.WriteString(theme.Selected.Render(line))
		} else {
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
