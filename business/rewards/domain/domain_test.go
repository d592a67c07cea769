package domain_test

import (
	"testing"

	"github.com/cowprotocol/solver-rewards/business/rewards/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/frame"
)

var caps = domain.ScoreCaps{
	Upper: asset.MustParseWei("12000000000000000"),
	Lower: asset.MustParseWei("10000000000000000"),
}

func TestPrimaryRewardFromScores(t *testing.T) {
	tests := []struct {
		name      string
		winning   string
		reference string
		settled   bool
		want      string
	}{
		{"settled below cap", "5000000000000000", "2000000000000000", true, "3000000000000000"},
		{"settled capped", "50000000000000000", "1000000000000000", true, "12000000000000000"},
		{"failed below cap", "5000000000000000", "4000000000000000", false, "-4000000000000000"},
		{"failed capped", "50000000000000000", "40000000000000000", false, "-10000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.PrimaryRewardFromScores(asset.MustParseWei(tt.winning), asset.MustParseWei(tt.reference), tt.settled, caps)
			if got.Cmp(asset.MustParseWei(tt.want)) != 0 {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestReadBatches(t *testing.T) {
	table := frame.New("batch_data", append(domain.BatchColumns, domain.ColParticipatingSolvers)...)
	if err := table.Append(
		"0x1111111111111111111111111111111111111111",
		"-500",
		"3",
		`[["0x90a48d5cf7343b08da12e067680b4c6dbfe551be","CoW Swap"],"0x2222222222222222222222222222222222222222"]`,
		`[100,"200"]`,
		`["0x1111111111111111111111111111111111111111","0x3333333333333333333333333333333333333333"]`,
	); err != nil {
		t.Fatal(err)
	}
	if err := table.Append("0x2222222222222222222222222222222222222222", "7", "0", "{}", "[]", ""); err != nil {
		t.Fatal(err)
	}

	batches, err := domain.ReadBatches(table, caps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}

	b := batches[0]
	if b.PrimaryRewardETH.Int64() != -500 || b.NumQuotes != 3 {
		t.Errorf("unexpected reward %s quotes %d", b.PrimaryRewardETH, b.NumQuotes)
	}
	if len(b.Partners) != 2 || b.Partners[0].AppCode != "CoW Swap" || b.Partners[1].AppCode != "" {
		t.Errorf("unexpected partners %+v", b.Partners)
	}
	if len(b.ParticipatingSolvers) != 2 {
		t.Errorf("expected 2 participants, got %d", len(b.ParticipatingSolvers))
	}
	if len(batches[1].Partners) != 0 || len(batches[1].ParticipatingSolvers) != 0 {
		t.Errorf("expected empty lists, got %+v", batches[1])
	}
	if got := domain.PartnerFeeTotal(batches); got.Int64() != 300 {
		t.Errorf("expected partner fee total 300, got %s", got)
	}
}

func TestReadBatches_FromScores(t *testing.T) {
	columns := []string{
		domain.ColSolver, domain.ColNumQuotes, domain.ColPartnerList, domain.ColPartnerFeeETH,
		domain.ColWinningScore, domain.ColReferenceScore, domain.ColTxHash,
	}
	table := frame.New("batch_data", columns...)
	table.AppendMap(map[string]string{
		domain.ColSolver:         "0x1111111111111111111111111111111111111111",
		domain.ColWinningScore:   "20000000000000000",
		domain.ColReferenceScore: "1000000000000000",
		domain.ColTxHash:         "0xabcd",
	})
	table.AppendMap(map[string]string{
		domain.ColSolver:         "0x1111111111111111111111111111111111111111",
		domain.ColWinningScore:   "20000000000000000",
		domain.ColReferenceScore: "1000000000000000",
	})

	batches, err := domain.ReadBatches(table, caps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batches[0].PrimaryRewardETH.Cmp(caps.Upper) != 0 {
		t.Errorf("settled: expected %s, got %s", caps.Upper, batches[0].PrimaryRewardETH)
	}
	if batches[1].PrimaryRewardETH.Cmp(asset.MustParseWei("-1000000000000000")) != 0 {
		t.Errorf("unsettled: expected -1e15, got %s", batches[1].PrimaryRewardETH)
	}
}

func TestReadBatches_MisalignedPartners(t *testing.T) {
	table := frame.New("batch_data", domain.BatchColumns...)
	if err := table.Append("0x1111111111111111111111111111111111111111", "0", "0",
		`["0x2222222222222222222222222222222222222222"]`, `[]`); err != nil {
		t.Fatal(err)
	}
	if _, err := domain.ReadBatches(table, caps); !apperror.HasCode(err, apperror.CodeInvalidValue) {
		t.Errorf("expected INVALID_VALUE, got %v", err)
	}
}

func TestReadRewardTargets_MissingColumn(t *testing.T) {
	table := frame.New("reward_targets", domain.ColSolver, domain.ColRewardTarget, domain.ColSolverName)
	_, err := domain.ReadRewardTargets(table)
	if !apperror.HasCode(err, apperror.CodeMissingColumn) {
		t.Fatalf("expected MISSING_COLUMN, got %v", err)
	}
}

func TestReadServiceFees(t *testing.T) {
	table := frame.New("service_fees", domain.ServiceFeeColumns...)
	_ = table.Append("0x1111111111111111111111111111111111111111", "true")
	_ = table.Append("0x2222222222222222222222222222222222222222", "f")

	flags, err := domain.ReadServiceFees(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !flags[0].ServiceFee || flags[1].ServiceFee {
		t.Errorf("unexpected flags %+v", flags)
	}
}
