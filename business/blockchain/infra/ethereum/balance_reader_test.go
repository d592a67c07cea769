package ethereum_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/blockchain/app"
	infra "github.com/cowprotocol/solver-rewards/business/blockchain/infra/ethereum"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

var (
	safe = common.HexToAddress("0xA03be496e67Ec29bC62F01a428683D7F9c204930")
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

type fakeChain struct {
	native  *big.Int
	wrapped *big.Int
	err     error
	calls   []ethereum.CallMsg
}

func (f *fakeChain) BalanceAt(_ context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.native, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	if f.err != nil {
		return nil, f.err
	}
	return common.LeftPadBytes(f.wrapped.Bytes(), 32), nil
}

func newReader(t *testing.T, chain *fakeChain) *infra.BalanceReader {
	t.Helper()
	r, err := infra.NewBalanceReader(chain, logger.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestBalanceReader_TokenBalance(t *testing.T) {
	chain := &fakeChain{wrapped: big.NewInt(123456789)}
	got, err := newReader(t, chain).TokenBalance(context.Background(), weth, safe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(123456789)) != 0 {
		t.Errorf("expected 123456789, got %s", got)
	}

	if len(chain.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(chain.calls))
	}
	call := chain.calls[0]
	if *call.To != weth {
		t.Errorf("expected call to weth, got %s", call.To.Hex())
	}
	want := append(common.FromHex("0x70a08231"), common.LeftPadBytes(safe.Bytes(), 32)...)
	if !bytes.Equal(call.Data, want) {
		t.Errorf("unexpected calldata %x", call.Data)
	}
}

func TestBalanceReader_Error(t *testing.T) {
	chain := &fakeChain{err: errors.New("node down")}
	_, err := newReader(t, chain).NativeBalance(context.Background(), safe)
	if !apperror.HasCode(err, apperror.CodeChainReadFailed) {
		t.Fatalf("expected CHAIN_READ_FAILED, got %v", err)
	}
}

func TestBlockchainService_SafeBalance(t *testing.T) {
	tests := []struct {
		name        string
		needed      int64
		wantWrapped int64
		wantCalls   int
	}{
		{"native covers", 100, 0, 0},
		{"needs wrapped", 101, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &fakeChain{native: big.NewInt(100), wrapped: big.NewInt(50)}
			svc := app.NewBlockchainService(newReader(t, chain))

			b, err := svc.SafeBalance(context.Background(), safe, weth, big.NewInt(tt.needed))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b.Wrapped.Int64() != tt.wantWrapped {
				t.Errorf("expected wrapped %d, got %s", tt.wantWrapped, b.Wrapped)
			}
			if len(chain.calls) != tt.wantCalls {
				t.Errorf("expected %d token calls, got %d", tt.wantCalls, len(chain.calls))
			}
			if b.Total().Int64() != 100+tt.wantWrapped {
				t.Errorf("unexpected total %s", b.Total())
			}
		})
	}
}
