package multisend_test

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	blockchain "github.com/cowprotocol/solver-rewards/business/blockchain/domain"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/business/payouts/infra/multisend"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

var (
	receiver = common.HexToAddress("0xde786877a10dbb7eba25a4da65aecf47654f08ab")
	cowToken = common.HexToAddress("0xDEf1CA1fb7FBcDC777520aa7f396b4E015F497aB")
	safe     = common.HexToAddress("0xA03be496e67Ec29bC62F01a428683D7F9c204930")
	weth     = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

func mustTransfer(t *testing.T, token *common.Address, amount int64) domain.Transfer {
	t.Helper()
	tr, err := domain.NewTransfer(token, receiver, big.NewInt(amount))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tr
}

func hexJoin(parts ...string) string {
	return strings.Join(parts, "")
}

func TestPack(t *testing.T) {
	native := mustTransfer(t, nil, 16)
	erc20 := mustTransfer(t, &cowToken, 15)

	tests := []struct {
		name      string
		transfers []domain.Transfer
		want      string
	}{
		{
			name: "empty",
			want: hexJoin(
				"0x8d80ff0a",
				"0000000000000000000000000000000000000000000000000000000000000020",
				"0000000000000000000000000000000000000000000000000000000000000000",
			),
		},
		{
			name:      "native",
			transfers: []domain.Transfer{native},
			want: hexJoin(
				"0x8d80ff0a",
				"0000000000000000000000000000000000000000000000000000000000000020",
				"0000000000000000000000000000000000000000000000000000000000000055",
				"00de786877a10dbb7eba25a4da65aecf47654f08ab0000000000000000000000",
				"0000000000000000000000000000000000000000100000000000000000000000",
				"0000000000000000000000000000000000000000000000000000000000000000",
			),
		},
		{
			name:      "erc20",
			transfers: []domain.Transfer{erc20},
			want: hexJoin(
				"0x8d80ff0a",
				"0000000000000000000000000000000000000000000000000000000000000020",
				"0000000000000000000000000000000000000000000000000000000000000099",
				"00def1ca1fb7fbcdc777520aa7f396b4e015f497ab0000000000000000000000",
				"0000000000000000000000000000000000000000000000000000000000000000",
				"000000000000000000000000000000000000000044a9059cbb00000000000000",
				"0000000000de786877a10dbb7eba25a4da65aecf47654f08ab00000000000000",
				"0000000000000000000000000000000000000000000000000f00000000000000",
			),
		},
		{
			name:      "erc20 then native",
			transfers: []domain.Transfer{erc20, native},
			want: hexJoin(
				"0x8d80ff0a",
				"0000000000000000000000000000000000000000000000000000000000000020",
				"00000000000000000000000000000000000000000000000000000000000000ee",
				"00def1ca1fb7fbcdc777520aa7f396b4e015f497ab0000000000000000000000",
				"0000000000000000000000000000000000000000000000000000000000000000",
				"000000000000000000000000000000000000000044a9059cbb00000000000000",
				"0000000000de786877a10dbb7eba25a4da65aecf47654f08ab00000000000000",
				"0000000000000000000000000000000000000000000000000f00de786877a10d",
				"bb7eba25a4da65aecf47654f08ab000000000000000000000000000000000000",
				"0000000000000000000000000010000000000000000000000000000000000000",
				"0000000000000000000000000000000000000000000000000000000000000000",
			),
		},
	}

	enc := multisend.NewEncoder(multisend.Config{Safe: safe, WrappedNative: weth}, nil, logger.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle, err := enc.Encode(context.Background(), tt.transfers, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := hexutil.Encode(bundle.Calldata); got != tt.want {
				t.Errorf("calldata mismatch\n got %s\nwant %s", got, tt.want)
			}
			if bundle.To != multisend.DefaultContract {
				t.Errorf("expected default contract, got %s", bundle.To.Hex())
			}
			if bundle.Operation != domain.OperationDelegateCall {
				t.Errorf("expected delegate call, got %d", bundle.Operation)
			}
		})
	}
}

type fakeBalances struct {
	native, wrapped int64
}

func (f fakeBalances) SafeBalance(_ context.Context, s, _ common.Address, needed *big.Int) (blockchain.SafeBalance, error) {
	b := blockchain.SafeBalance{Safe: s, Native: big.NewInt(f.native), Wrapped: new(big.Int)}
	if !b.Covers(needed) {
		b.Wrapped = big.NewInt(f.wrapped)
	}
	return b, nil
}

func TestEncode_Unwrap(t *testing.T) {
	tests := []struct {
		name           string
		balances       fakeBalances
		skipValidation bool
		wantCalls      int
		wantCode       apperror.Code
	}{
		{name: "native covers", balances: fakeBalances{native: 100}, wantCalls: 1},
		{name: "unwrap needed", balances: fakeBalances{native: 60, wrapped: 50}, wantCalls: 2},
		{name: "insufficient", balances: fakeBalances{native: 60, wrapped: 10}, wantCode: apperror.CodeInsufficientFunds},
		{name: "insufficient skipped", balances: fakeBalances{native: 60, wrapped: 10}, skipValidation: true, wantCalls: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := multisend.NewEncoder(multisend.Config{Safe: safe, WrappedNative: weth}, tt.balances, logger.Discard())
			bundle, err := enc.Encode(context.Background(), []domain.Transfer{mustTransfer(t, nil, 100)}, tt.skipValidation)
			if tt.wantCode != "" {
				if !apperror.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(bundle.Calls) != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, len(bundle.Calls))
			}
			if tt.wantCalls == 1 {
				if bundle.Unwrapped != nil {
					t.Errorf("expected no unwrap, got %s", bundle.Unwrapped)
				}
				return
			}

			unwrap := bundle.Calls[0]
			if unwrap.To != weth {
				t.Errorf("expected unwrap on weth, got %s", unwrap.To.Hex())
			}
			want := "0x2e1a7d4d" + common.Bytes2Hex(common.LeftPadBytes(big.NewInt(tt.balances.wrapped).Bytes(), 32))
			if got := hexutil.Encode(unwrap.Data); got != want {
				t.Errorf("unexpected withdraw data %s", got)
			}
			if bundle.Unwrapped.Int64() != tt.balances.wrapped {
				t.Errorf("expected unwrapped %d, got %s", tt.balances.wrapped, bundle.Unwrapped)
			}
		})
	}
}
