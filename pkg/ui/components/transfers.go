// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TransferRow is one transfer as displayed. Values are pre-formatted.
type TransferRow struct {
	Recipient string
	Token     string
	Amount    string
}

// TransfersComponent renders a scrollable transfer table.
type TransfersComponent struct {
	table table.Model
	count int
}

// NewTransfersComponent creates a table showing height rows at a time.
func NewTransfersComponent(rows []TransferRow, height int) *TransfersComponent {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Recipient", Width: 42},
		{Title: "Token", Width: 10},
		{Title: "Amount", Width: 24},
	}
	tableRows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		tableRows = append(tableRows, table.Row{fmt.Sprintf("%d", i+1), r.Recipient, r.Token, r.Amount})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#374151")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#7C3AED"))
	t.SetStyles(styles)

	return &TransfersComponent{table: t, count: len(rows)}
}

// Update forwards navigation keys to the table.
func (c *TransfersComponent) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	return cmd
}

// Cursor returns the selected row index.
func (c *TransfersComponent) Cursor() int {
	return c.table.Cursor()
}

// View renders the transfers component.
func (c *TransfersComponent) View() string {
	if c.count == 0 {
		return "No transfers in this period."
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	return header.Render(fmt.Sprintf("TRANSFERS (%d)", c.count)) + "\n" + c.table.View()
}
