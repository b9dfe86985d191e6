package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/unisupport/unisupport/internal/ui/theme"
)

// ProgressBar is a horizontal bar of Done out of Total, with an optional
// label and trailing percentage.
type ProgressBar struct {
	Label       string
	Done, Total int
	Fill        color.Color
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a bar filled in the theme's secondary color.
func NewProgressBar(label string, done, total int, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Done:        done,
		Total:       total,
		Fill:        theme.Secondary,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// WithFill returns a copy of the bar filled in c.
func (p ProgressBar) WithFill(c color.Color) ProgressBar {
	p.Fill = c
	return p
}

func (p ProgressBar) fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Done)/float64(p.Total), 0), 1)
}

// View renders the bar in p.Width cells.
func (p ProgressBar) View() string {
	var prefix, suffix string
	if p.Label != "" {
		prefix = lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}
	if p.ShowPercent {
		suffix = lipgloss.NewStyle().Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %3d%%", int(p.fraction()*100+0.5)))
	}

	barWidth := max(p.Width-lipgloss.Width(prefix)-lipgloss.Width(suffix), 4)
	filled := int(float64(barWidth) * p.fraction())

	return prefix +
		lipgloss.NewStyle().Background(p.Fill).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled)) +
		suffix
}
