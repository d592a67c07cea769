package csvfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// Safe airdrop token types.
const (
	TokenTypeNative = "native"
	TokenTypeERC20  = "erc20"
)

// Output columns.
var (
	TransferColumns = []string{"token_type", "token_address", "receiver", "amount"}

	SolverRewardColumns = []string{
		"solver", "solver_name", "reward_target",
		"primary_reward_eth", "secondary_reward_eth", "slippage_eth",
		"primary_reward_cow", "secondary_reward_cow", "quote_reward_cow",
	}

	ProtocolFeeColumns = []string{"recipient", "fee_eth", "fee_cow", "from_partner_fee"}

	OverdraftColumns = []string{"period", "account", "name", "wei"}
)

// Exporter writes the run artifacts into one directory.
type Exporter struct {
	dir      string
	registry *asset.Registry
	logger   logger.LoggerInterface
}

var _ app.Exporter = (*Exporter)(nil)

// NewExporter creates an exporter writing to dir. The registry supplies
// token decimals for the airdrop amounts.
func NewExporter(dir string, registry *asset.Registry, log logger.LoggerInterface) *Exporter {
	return &Exporter{dir: dir, registry: registry, logger: log}
}

// Export implements app.Exporter.
func (e *Exporter) Export(ctx context.Context, a domain.Artifacts) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, apperror.External(apperror.CodeExportFailed, "create "+e.dir, err)
	}

	p := a.Payouts
	tables := []*frame.Table{
		e.transfers(p),
		solverRewards(p),
		protocolFees(p),
		overdrafts(p),
	}

	files := make([]string, 0, len(tables)+2)
	for _, t := range tables {
		path := filepath.Join(e.dir, fmt.Sprintf("%s-%s.csv", t.Name(), p.Period))
		if err := writeTable(path, t); err != nil {
			return files, err
		}
		files = append(files, path)
	}

	bundle, err := json.MarshalIndent(a.Multisend, "", "  ")
	if err != nil {
		return files, apperror.External(apperror.CodeExportFailed, "encode multisend", err)
	}
	path := filepath.Join(e.dir, fmt.Sprintf("multisend-%s.json", p.Period))
	if err := writeFile(path, bundle); err != nil {
		return files, err
	}
	files = append(files, path)

	path = filepath.Join(e.dir, fmt.Sprintf("summary-%s.txt", p.Period))
	if err := writeFile(path, []byte(p.Summary.Breakdown())); err != nil {
		return files, err
	}
	files = append(files, path)

	e.logger.Info(ctx, "artifacts exported", "dir", e.dir, "files", len(files), "run_id", a.RunID)
	return files, nil
}

func (e *Exporter) transfers(p *domain.PeriodPayouts) *frame.Table {
	t := frame.New("transfers", TransferColumns...)
	for _, tr := range p.Transfers {
		if tr.IsNative() {
			t.AppendMap(map[string]string{
				"token_type": TokenTypeNative,
				"receiver":   tr.Recipient.Hex(),
				"amount":     asset.FormatUnits(tr.Amount, asset.NativeDecimals).String(),
			})
			continue
		}
		decimals := uint8(asset.NativeDecimals)
		if token, ok := e.registry.Lookup(*tr.Token); ok {
			decimals = token.Decimals()
		}
		t.AppendMap(map[string]string{
			"token_type":    TokenTypeERC20,
			"token_address": tr.Token.Hex(),
			"receiver":      tr.Recipient.Hex(),
			"amount":        asset.FormatUnits(tr.Amount, decimals).String(),
		})
	}
	return t
}

func solverRewards(p *domain.PeriodPayouts) *frame.Table {
	t := frame.New("solver_rewards", SolverRewardColumns...)
	for _, s := range p.Solvers {
		_ = t.Append(
			s.Solver.Hex(),
			s.SolverName,
			s.RewardTarget.Hex(),
			s.PrimaryRewardETH.String(),
			s.SecondaryRewardETH.String(),
			s.SlippageETH.String(),
			s.PrimaryRewardCow.String(),
			s.SecondaryRewardCow.String(),
			s.QuoteRewardCow.String(),
		)
	}
	return t
}

func protocolFees(p *domain.PeriodPayouts) *frame.Table {
	t := frame.New("protocol_fees", ProtocolFeeColumns...)
	for _, f := range p.Fees {
		_ = t.Append(f.Recipient.Hex(), f.FeeNative.String(), f.FeeCow.String(), strconv.FormatBool(f.FromPartnerFee))
	}
	return t
}

func overdrafts(p *domain.PeriodPayouts) *frame.Table {
	t := frame.New("overdrafts", OverdraftColumns...)
	for _, o := range p.Overdrafts {
		_ = t.Append(o.Period, o.Account.Hex(), o.Name, o.Wei.String())
	}
	return t
}

func writeTable(path string, t *frame.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return apperror.External(apperror.CodeExportFailed, "create "+path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return apperror.External(apperror.CodeExportFailed, "write "+path, err)
	}
	if err := f.Close(); err != nil {
		return apperror.External(apperror.CodeExportFailed, "close "+path, err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperror.External(apperror.CodeExportFailed, "write "+path, err)
	}
	return nil
}
