// Package console renders payouts on the terminal and runs the interactive
// review.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
)

const rule = "================================================================================"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dangerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

// Reporter implements app.Reporter for CLI output.
type Reporter struct {
	out      io.Writer
	registry *asset.Registry
}

var _ app.Reporter = (*Reporter)(nil)

// NewReporter creates a reporter writing to stdout.
func NewReporter(registry *asset.Registry) *Reporter {
	return NewReporterTo(os.Stdout, registry)
}

// NewReporterTo creates a reporter writing to out.
func NewReporterTo(out io.Writer, registry *asset.Registry) *Reporter {
	return &Reporter{out: out, registry: registry}
}

// Report writes the summary, the transfer count by token and the overdrafts.
func (r *Reporter) Report(p *domain.PeriodPayouts) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, headerStyle.Render("PAYOUT "+p.Period))
	fmt.Fprintln(r.out, rule)
	fmt.Fprint(r.out, p.Summary.Breakdown())
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "TRANSFERS")

	counts := map[string]int{}
	var order []string
	for _, t := range p.Transfers {
		sym := TokenSymbol(r.registry, t)
		if counts[sym] == 0 {
			order = append(order, sym)
		}
		counts[sym]++
	}
	for _, sym := range order {
		fmt.Fprintf(r.out, "  %-10s %d\n", sym+":", counts[sym])
	}
	fmt.Fprintf(r.out, "  Native outflow: %s\n", asset.FormatUnits(p.Summary.NativeOutflow, asset.NativeDecimals).StringFixed(4))
	fmt.Fprintf(r.out, "  COW outflow:    %s\n", asset.FormatUnits(p.Summary.CowOutflow, asset.NativeDecimals).StringFixed(4))

	if len(p.Overdrafts) > 0 {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, dangerStyle.Render(fmt.Sprintf("OVERDRAFTS (%d)", len(p.Overdrafts))))
		for _, o := range p.Overdrafts {
			fmt.Fprintf(r.out, "  %s\n", o.String())
		}
	}
	fmt.Fprintln(r.out, rule)
}

// TokenSymbol is the registry symbol of the transferred token, its address
// when unknown.
func TokenSymbol(registry *asset.Registry, t domain.Transfer) string {
	if t.IsNative() {
		return registry.Native().Symbol()
	}
	if a, ok := registry.Lookup(*t.Token); ok {
		return a.Symbol()
	}
	return asset.Canonical(*t.Token)
}

// FormatAmount renders the amount in token units.
func FormatAmount(registry *asset.Registry, t domain.Transfer) string {
	var decimals uint8 = asset.NativeDecimals
	if !t.IsNative() {
		if a, ok := registry.Lookup(*t.Token); ok {
			decimals = a.Decimals()
		}
	}
	return asset.FormatUnits(t.Amount, decimals).String()
}
