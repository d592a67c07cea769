package app_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

var (
	cowToken        = asset.MustParseAddress("0xDEf1CA1fb7FBcDC777520aa7f396b4E015F497aB")
	protocolFeeSafe = asset.MustParseAddress("0xB64963f95215FDe6510657e719bd832BB8bb941B")
	solver          = asset.MustParseAddress("0x1111111111111111111111111111111111111111")
	rewardTarget    = asset.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bufferTarget    = asset.MustParseAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func wei(s string) *big.Int {
	return asset.MustParseWei(s)
}

// payout builds a solver row converting ETH to COW at 1:1000.
func payout(primary, secondary, slippage, quote string) domain.SolverPayout {
	thousand := big.NewInt(1000)
	return domain.SolverPayout{
		Solver:                 solver,
		SolverName:             "solver",
		RewardTarget:           rewardTarget,
		BufferAccountingTarget: bufferTarget,
		PrimaryRewardETH:       wei(primary),
		SecondaryRewardETH:     wei(secondary),
		SlippageETH:            wei(slippage),
		NetworkFeeETH:          new(big.Int),
		PrimaryRewardCow:       new(big.Int).Mul(wei(primary), thousand),
		SecondaryRewardCow:     new(big.Int).Mul(wei(secondary), thousand),
		QuoteRewardCow:         wei(quote),
		ServiceFee:             new(big.Rat),
	}
}

type wantTransfer struct {
	token     *common.Address
	recipient common.Address
	amount    string
}

func checkTransfers(t *testing.T, got []domain.Transfer, want []wantTransfer) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d transfers, got %d: %v", len(want), len(got), got)
	}
	for i, w := range want {
		g := got[i]
		sameToken := (g.Token == nil && w.token == nil) || (g.Token != nil && w.token != nil && *g.Token == *w.token)
		if !sameToken || g.Recipient != w.recipient || g.Amount.Cmp(wei(w.amount)) != 0 {
			t.Errorf("transfer %d: expected %v %s %s, got %s", i, w.token, w.recipient.Hex(), w.amount, g)
		}
	}
}

func TestCompose_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		payout    domain.SolverPayout
		want      []wantTransfer
		overdraft string
	}{
		{
			name:   "pure_positive_slippage",
			payout: payout("0", "0", "10000000000000000", "0"),
			want:   []wantTransfer{{nil, bufferTarget, "10000000000000000"}},
		},
		{
			name:   "pure_positive_cow_reward",
			payout: payout("500000000000000", "0", "0", "0"),
			want:   []wantTransfer{{&cowToken, rewardTarget, "500000000000000000"}},
		},
		{
			name:   "reimbursement_pays_negative_reward",
			payout: payout("-1000000000000000", "500000000000000", "2000000000000000", "0"),
			want:   []wantTransfer{{nil, bufferTarget, "1500000000000000"}},
		},
		{
			name:   "reward_pays_negative_reimbursement",
			payout: payout("2000000000000000", "0", "-500000000000000", "0"),
			want:   []wantTransfer{{&cowToken, rewardTarget, "1500000000000000000"}},
		},
		{
			name:      "overdraft_keeps_quote_reward",
			payout:    payout("-3000000000000000", "0", "0", "6000000000000000000"),
			want:      []wantTransfer{{&cowToken, rewardTarget, "6000000000000000000"}},
			overdraft: "3000000000000000",
		},
		{
			name:   "reimbursement_and_reward",
			payout: payout("1000000000000000", "0", "2000000000000000", "0"),
			want: []wantTransfer{
				{nil, bufferTarget, "2000000000000000"},
				{&cowToken, rewardTarget, "1000000000000000000"},
			},
		},
		{
			name:   "nothing_owed",
			payout: payout("0", "0", "0", "0"),
		},
	}

	c := app.NewComposer(cowToken, protocolFeeSafe, logger.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Compose(context.Background(), tt.payout)
			checkTransfers(t, res.Transfers, tt.want)

			switch {
			case tt.overdraft == "" && res.Overdraft != nil:
				t.Errorf("unexpected overdraft %s", res.Overdraft)
			case tt.overdraft != "" && (res.Overdraft == nil || res.Overdraft.Cmp(wei(tt.overdraft)) != 0):
				t.Errorf("expected overdraft %s, got %v", tt.overdraft, res.Overdraft)
			}
		})
	}
}

func TestCompose_ServiceFee(t *testing.T) {
	p := payout("1000000000000000", "0", "0", "6000000000000000000")
	p.ServiceFee = big.NewRat(15, 100)

	res := app.NewComposer(cowToken, protocolFeeSafe, logger.Discard()).Compose(context.Background(), p)
	checkTransfers(t, res.Transfers, []wantTransfer{
		{&cowToken, rewardTarget, "5100000000000000000"},
		{&cowToken, protocolFeeSafe, "900000000000000000"},
		{&cowToken, rewardTarget, "850000000000000000"},
		{&cowToken, protocolFeeSafe, "150000000000000000"},
	})
	if res.ServiceFeeCow.Cmp(wei("1050000000000000000")) != 0 {
		t.Errorf("expected service fee 1.05e18, got %s", res.ServiceFeeCow)
	}
}

func TestCompose_Properties(t *testing.T) {
	amounts := []string{
		"-5000000000000000", "-1000000000000000", "-1", "0", "1", "7",
		"333333333333333", "1000000000000000", "20000000000000000",
	}
	feeFactors := []*big.Rat{new(big.Rat), big.NewRat(15, 100), big.NewRat(1, 3)}
	c := app.NewComposer(cowToken, protocolFeeSafe, logger.Discard())

	for _, primary := range amounts {
		for _, slippage := range amounts {
			for _, quote := range []string{"0", "600000000000000000"} {
				for _, f := range feeFactors {
					p := payout(primary, "0", slippage, quote)
					p.ServiceFee = f
					res := c.Compose(context.Background(), p)
					checkProperties(t, p, res)
				}
			}
		}
	}
}

func checkProperties(t *testing.T, p domain.SolverPayout, res domain.PayoutResult) {
	t.Helper()
	keep := new(big.Rat).Sub(big.NewRat(1, 1), p.ServiceFee)
	feeRatio := new(big.Rat).Quo(p.ServiceFee, keep)

	native, cow := new(big.Int), new(big.Int)
	for i, tr := range res.Transfers {
		if tr.Amount.Sign() <= 0 {
			t.Errorf("%+v: non-positive transfer %s", p, tr)
		}
		if tr.IsNative() {
			native.Add(native, tr.Amount)
		} else {
			cow.Add(cow, tr.Amount)
		}

		// each reward target payment is followed by its service fee
		if tr.Recipient == rewardTarget && p.ServiceFee.Sign() > 0 {
			want := asset.MulRatFloor(tr.Amount, feeRatio)
			if want.Sign() == 0 {
				continue
			}
			if i+1 >= len(res.Transfers) || res.Transfers[i+1].Recipient != protocolFeeSafe ||
				res.Transfers[i+1].Amount.Cmp(want) != 0 {
				t.Errorf("%+v: missing service fee %s after %s", p, want, tr)
			}
		}
	}

	if p.TotalOutgoingETH().Sign() < 0 {
		if res.Overdraft == nil {
			t.Errorf("%+v: expected overdraft", p)
		}
		for _, tr := range res.Transfers {
			if tr.IsNative() {
				t.Errorf("%+v: overdrafted solver received %s", p, tr)
			}
		}
		if cow.Cmp(p.QuoteRewardCow) > 0 {
			t.Errorf("%+v: overdrafted solver paid %s COW beyond quote reward", p, cow)
		}
		return
	}

	if p.SlippageETH.Sign() > 0 && native.Cmp(p.SlippageETH) > 0 {
		t.Errorf("%+v: native %s exceeds reimbursement", p, native)
	}
	// a negative reward is netted against the reimbursement, never the quote
	maxCow := new(big.Int).Add(asset.MaxInt(p.RewardCow(), new(big.Int)), p.QuoteRewardCow)
	if cow.Cmp(maxCow) > 0 {
		t.Errorf("%+v: cow %s exceeds %s", p, cow, maxCow)
	}
}
