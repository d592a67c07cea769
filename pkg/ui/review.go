package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cowprotocol/solver-rewards/pkg/ui/components"
)

// Decision is the outcome of a review.
type Decision string

const (
	DecisionPending   Decision = "pending"
	DecisionConfirmed Decision = "confirmed"
	DecisionRejected  Decision = "rejected"
)

// tableHeight is the number of transfer rows visible at once.
const tableHeight = 12

// ReviewInput is everything the review screen shows. All values are
// pre-formatted; the UI does no arithmetic.
type ReviewInput struct {
	Period    string
	Transfers []components.TransferRow
	Totals    []components.Total
	Overdraft []string
	Warnings  []string
}

// Model is the Bubble Tea model of the review screen.
type Model struct {
	input     ReviewInput
	transfers *components.TransfersComponent
	summary   *components.SummaryComponent
	keys      KeyMap
	help      help.Model

	decision Decision
	width    int
}

// NewReview creates a review model for input.
func NewReview(input ReviewInput) Model {
	return Model{
		input:     input,
		transfers: components.NewTransfersComponent(input.Transfers, tableHeight),
		summary:   components.NewSummaryComponent(input.Totals, input.Overdraft),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		decision:  DecisionPending,
	}
}

// Decision returns the operator's choice.
func (m Model) Decision() Decision {
	return m.decision
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.decision = DecisionConfirmed
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reject):
			m.decision = DecisionRejected
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, m.transfers.Update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	}
	return m, nil
}

// View renders the review screen.
func (m Model) View() string {
	switch m.decision {
	case DecisionConfirmed:
		return ConfirmedStyle.Render("Payout confirmed.") + "\n"
	case DecisionRejected:
		return RejectedStyle.Render("Payout rejected.") + "\n"
	}

	sections := []string{
		TitleStyle.Render("PAYOUT REVIEW " + m.input.Period),
		BoxStyle.Render(m.summary.View()),
	}
	if len(m.input.Warnings) > 0 {
		sections = append(sections, WarningStyle.Render(strings.Join(m.input.Warnings, "\n")))
	}
	sections = append(sections,
		BoxStyle.Render(m.transfers.View()),
		HelpStyle.Render(m.help.View(m.keys)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}
