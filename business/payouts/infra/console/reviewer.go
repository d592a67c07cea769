package console

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/pkg/ui"
	"github.com/cowprotocol/solver-rewards/pkg/ui/components"
)

// Reviewer implements app.Reviewer with the Bubble Tea review screen.
type Reviewer struct {
	registry *asset.Registry
	opts     []tea.ProgramOption
}

var _ app.Reviewer = (*Reviewer)(nil)

// NewReviewer creates a reviewer on the controlling terminal.
func NewReviewer(registry *asset.Registry) *Reviewer {
	return &Reviewer{registry: registry, opts: []tea.ProgramOption{tea.WithAltScreen()}}
}

// NewReviewerIO creates a reviewer reading keys from in and drawing to out.
func NewReviewerIO(registry *asset.Registry, in io.Reader, out io.Writer) *Reviewer {
	return &Reviewer{registry: registry, opts: []tea.ProgramOption{tea.WithInput(in), tea.WithOutput(out)}}
}

// Review implements app.Reviewer.
func (r *Reviewer) Review(ctx context.Context, p *domain.PeriodPayouts) (bool, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, r.opts...)
	final, err := tea.NewProgram(ui.NewReview(ReviewInput(r.registry, p)), opts...).Run()
	if err != nil {
		return false, fmt.Errorf("review program: %w", err)
	}
	m, ok := final.(ui.Model)
	if !ok {
		return false, fmt.Errorf("review program: unexpected model %T", final)
	}
	return m.Decision() == ui.DecisionConfirmed, nil
}

// ReviewInput formats p for the review screen.
func ReviewInput(registry *asset.Registry, p *domain.PeriodPayouts) ui.ReviewInput {
	rows := make([]components.TransferRow, 0, len(p.Transfers))
	for _, t := range p.Transfers {
		rows = append(rows, components.TransferRow{
			Recipient: t.Recipient.Hex(),
			Token:     TokenSymbol(registry, t),
			Amount:    FormatAmount(registry, t),
		})
	}

	s := p.Summary
	totals := []components.Total{
		{Label: "Native outflow", Value: asset.FormatUnits(s.NativeOutflow, asset.NativeDecimals).StringFixed(4)},
		{Label: "COW outflow", Value: asset.FormatUnits(s.CowOutflow, asset.NativeDecimals).StringFixed(4)},
		{Label: "Protocol fees", Value: asset.FormatUnits(s.ProtocolFeeETH, asset.NativeDecimals).StringFixed(4)},
		{Label: "Partner fees", Value: asset.FormatUnits(s.PartnerFeeETH, asset.NativeDecimals).StringFixed(4)},
		{Label: "Slippage", Value: asset.FormatUnits(s.SlippageETH, asset.NativeDecimals).StringFixed(4)},
	}
	if s.NativeToCow != nil {
		totals = append(totals, components.Total{Label: "COW per native", Value: s.NativeToCow.FloatString(4)})
	}

	overdrafts := make([]string, 0, len(p.Overdrafts))
	for _, o := range p.Overdrafts {
		overdrafts = append(overdrafts, o.String())
	}

	return ui.ReviewInput{
		Period:    p.Period,
		Transfers: rows,
		Totals:    totals,
		Overdraft: overdrafts,
	}
}
