package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/unisupport/unisupport/internal/ui/theme"
)

// TextInput is a labelled bubbles/textinput field.
type TextInput struct {
	Label string
	Model textinput.Model
}

// NewTextInput creates a blurred field holding value.
func NewTextInput(label, placeholder, value string, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	ti.SetValue(value)
	return TextInput{Label: label, Model: ti}
}

// Focus focuses the field and returns the cursor blink command.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur removes focus from the field.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Focused reports whether the field has focus.
func (t TextInput) Focused() bool {
	return t.Model.Focused()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the label above the input.
func (t TextInput) View(labelWidth int) string {
	style := theme.Unselected
	if t.Focused() {
		style = theme.Selected
	}
	label := t.Label + strings.Repeat(" ", max(labelWidth-lipgloss.Width(t.Label), 0))
	return style.Render(label) + "  " + t.Model.View()
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}
