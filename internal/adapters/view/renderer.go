package view

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// labelWidth wraps long quotes.
const labelWidth = 72

// Renderer draws a QuoteView as a bordered label followed by the button.
type Renderer struct {
	w        io.Writer
	label    lipgloss.Style
	enabled  lipgloss.Style
	disabled lipgloss.Style
}

// NewRenderer creates a renderer writing frames to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{
		w: w,
		label: lipgloss.NewStyle().
			Width(labelWidth).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()),
		enabled:  lipgloss.NewStyle().Bold(true),
		disabled: lipgloss.NewStyle().Faint(true),
	}
}

// Render writes one frame for v.
func (r *Renderer) Render(v *QuoteView) error {
	label := v.Label()
	if label == "" {
		label = "…"
	}

	button := r.enabled.Render("[r] Refresh")
	if !v.ButtonEnabled() {
		button = r.disabled.Render("[r] Refresh (loading)")
	}

	_, err := fmt.Fprintf(r.w, "%s\n%s   [q] Quit\n", r.label.Render(label), button)

	return err
}
