package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Total is one labelled figure of the summary.
type Total struct {
	Label string
	Value string
}

// SummaryComponent renders run totals and overdrafts.
type SummaryComponent struct {
	totals     []Total
	overdrafts []string
}

// NewSummaryComponent creates a new summary component.
func NewSummaryComponent(totals []Total, overdrafts []string) *SummaryComponent {
	return &SummaryComponent{totals: totals, overdrafts: overdrafts}
}

// View renders the summary component.
func (s *SummaryComponent) View() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	danger := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	width := 0
	for _, t := range s.totals {
		width = max(width, len(t.Label))
	}

	var b strings.Builder
	b.WriteString(label.Render("SUMMARY") + "\n")
	for _, t := range s.totals {
		fmt.Fprintf(&b, "%s  %s\n", label.Render(fmt.Sprintf("%-*s", width, t.Label)), value.Render(t.Value))
	}
	if len(s.overdrafts) > 0 {
		b.WriteString("\n" + danger.Render(fmt.Sprintf("OVERDRAFTS (%d)", len(s.overdrafts))) + "\n")
		for _, o := range s.overdrafts {
			b.WriteString(o + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
