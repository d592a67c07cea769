package csvfile_test

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/csvfile"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

var (
	cow    = asset.MustParseAddress("0xDEf1CA1fb7FBcDC777520aa7f396b4E015F497aB")
	solver = asset.MustParseAddress("0x1111111111111111111111111111111111111111")
	target = asset.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeInputs(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "batch_data.csv"), "solver,primary_reward_eth,num_quotes,partner_list,partner_fee_eth\n"+solver.Hex()+",100,0,[],[]\n")
	writeFile(t, filepath.Join(dir, "trade_data.csv"), "auction_id,order_uid\n")
	writeFile(t, filepath.Join(dir, "slippage.csv"), "solver,solver_name,eth_slippage_wei\n"+solver.Hex()+",one,0\n")
	writeFile(t, filepath.Join(dir, "reward_targets.csv"), "solver,reward_target,pool_address,solver_name\n")
	writeFile(t, filepath.Join(dir, "service_fees.csv"), "solver,service_fee\n")
}

func TestSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)

	tables, err := csvfile.NewSource(dir, logger.Discard()).Load(context.Background(), period.MustNew("2024-05-07", 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables.Batches.Len() != 1 || tables.Slippage.Len() != 1 || tables.Trades.Len() != 0 {
		t.Errorf("unexpected row counts: %d %d %d", tables.Batches.Len(), tables.Slippage.Len(), tables.Trades.Len())
	}
}

func TestSource_PrefersPeriodDirectory(t *testing.T) {
	dir := t.TempDir()
	p := period.MustNew("2024-05-07", 7)
	writeInputs(t, dir)
	writeInputs(t, filepath.Join(dir, p.String()))
	writeFile(t, filepath.Join(dir, p.String(), "slippage.csv"), "solver,solver_name,eth_slippage_wei\n")

	tables, err := csvfile.NewSource(dir, logger.Discard()).Load(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables.Slippage.Len() != 0 {
		t.Errorf("expected the period directory to be read, got %d slippage rows", tables.Slippage.Len())
	}
}

func TestSource_MissingFile(t *testing.T) {
	_, err := csvfile.NewSource(t.TempDir(), logger.Discard()).Load(context.Background(), period.MustNew("2024-05-07", 7))
	if !apperror.HasCode(err, apperror.CodeSourceFailed) {
		t.Fatalf("expected SOURCE_FAILED, got %v", err)
	}
}

func TestExporter_Transfers(t *testing.T) {
	native, _ := domain.NativeTransfer(solver, big.NewInt(1_500_000_000_000_000_000))
	reward, _ := domain.NewTransfer(&cow, target, big.NewInt(250_000_000_000_000_000))
	payouts := &domain.PeriodPayouts{
		Period:    "2024-05-07-to-2024-05-14",
		Transfers: []domain.Transfer{native, reward},
		Overdrafts: []domain.Overdraft{
			{Period: "2024-05-07-to-2024-05-14", Account: solver, Name: "one", Wei: big.NewInt(42)},
		},
		Summary: domain.NewSummary(),
	}

	dir := t.TempDir()
	network, _ := asset.LookupNetwork("mainnet")
	files, err := csvfile.NewExporter(dir, network.Registry(), logger.Discard()).
		Export(context.Background(), domain.Artifacts{RunID: "run", Payouts: payouts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 6 {
		t.Errorf("expected 6 files, got %v", files)
	}

	f, err := os.Open(filepath.Join(dir, "transfers-2024-05-07-to-2024-05-14.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	table, err := frame.ReadCSV("transfers", f)
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Require(csvfile.TransferColumns...); err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{csvfile.TokenTypeNative, "", solver.Hex(), "1.5"},
		{csvfile.TokenTypeERC20, cow.Hex(), target.Hex(), "0.25"},
	}
	if table.Len() != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), table.Len())
	}
	for i, w := range want {
		r := frame.NewReader(table.Row(i))
		got := []string{r.String("token_type"), r.String("token_address"), r.String("receiver"), r.String("amount")}
		for j := range w {
			if got[j] != w[j] {
				t.Errorf("row %d column %s: expected %q, got %q", i, csvfile.TransferColumns[j], w[j], got[j])
			}
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "overdrafts-2024-05-07-to-2024-05-14.csv"))
	if err != nil {
		t.Fatal(err)
	}
	wantOverdrafts := "period,account,name,wei\n2024-05-07-to-2024-05-14," + solver.Hex() + ",one,42\n"
	if string(raw) != wantOverdrafts {
		t.Errorf("unexpected overdrafts file:\n%s", raw)
	}
}
