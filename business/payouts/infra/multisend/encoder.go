// Package multisend encodes transfers into a single Safe MultiSend
// transaction.
package multisend

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	blockchain "github.com/cowprotocol/solver-rewards/business/blockchain/domain"
	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

// DefaultContract is the MultiSend deployment used for payouts.
var DefaultContract = common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D")

// BalanceChecker reads the funds available to the payment safe.
type BalanceChecker interface {
	SafeBalance(ctx context.Context, safe, wrapped common.Address, needed *big.Int) (blockchain.SafeBalance, error)
}

// Config identifies the contracts of a bundle.
type Config struct {
	Safe          common.Address
	Contract      common.Address
	WrappedNative common.Address
}

// Encoder builds multisend bundles.
type Encoder struct {
	cfg      Config
	balances BalanceChecker
	logger   logger.LoggerInterface
}

var _ app.Encoder = (*Encoder)(nil)

// NewEncoder creates an encoder. A nil checker skips the balance check.
func NewEncoder(cfg Config, balances BalanceChecker, log logger.LoggerInterface) *Encoder {
	if cfg.Contract == (common.Address{}) {
		cfg.Contract = DefaultContract
	}
	return &Encoder{cfg: cfg, balances: balances, logger: log}
}

// Encode implements app.Encoder. When the safe lacks native funds its whole
// wrapped balance is unwrapped first.
func (e *Encoder) Encode(ctx context.Context, transfers []domain.Transfer, skipValidation bool) (domain.Multisend, error) {
	calls := make([]domain.Call, 0, len(transfers)+1)
	needed := new(big.Int)
	for _, t := range transfers {
		call, err := transferCall(t)
		if err != nil {
			return domain.Multisend{}, err
		}
		needed.Add(needed, call.Value)
		calls = append(calls, call)
	}

	bundle := domain.Multisend{
		Safe:      e.cfg.Safe,
		To:        e.cfg.Contract,
		Operation: domain.OperationDelegateCall,
	}

	unwrap, err := e.unwrap(ctx, needed, skipValidation)
	if err != nil {
		return domain.Multisend{}, err
	}
	if unwrap != nil {
		call, err := withdrawCall(e.cfg.WrappedNative, unwrap)
		if err != nil {
			return domain.Multisend{}, err
		}
		calls = append([]domain.Call{call}, calls...)
		bundle.Unwrapped = unwrap
	}

	e.logger.Info(ctx, "packing transfers into multisend", "calls", len(calls))
	bundle.Calls = calls
	if bundle.Calldata, err = Pack(calls); err != nil {
		return domain.Multisend{}, err
	}
	return bundle, nil
}

// unwrap returns the wrapped amount to withdraw, nil when none is needed.
func (e *Encoder) unwrap(ctx context.Context, needed *big.Int, skipValidation bool) (*big.Int, error) {
	if needed.Sign() == 0 {
		return nil, nil
	}
	if e.balances == nil {
		e.logger.Warn(ctx, "no node configured, skipping safe balance check", "needed_wei", needed.String())
		return nil, nil
	}

	balance, err := e.balances.SafeBalance(ctx, e.cfg.Safe, e.cfg.WrappedNative, needed)
	if err != nil {
		return nil, err
	}
	if balance.Covers(needed) {
		return nil, nil
	}

	if balance.Total().Cmp(needed) < 0 {
		insufficient := apperror.New(apperror.CodeInsufficientFunds,
			apperror.WithComponent(apperror.ComponentPayouts),
			apperror.WithRowKey(asset.Canonical(e.cfg.Safe)),
			apperror.WithContext(fmt.Sprintf("native %s + wrapped %s < needed %s", balance.Native, balance.Wrapped, needed)),
		)
		if !skipValidation {
			return nil, insufficient
		}
		e.logger.Warn(ctx, "proceeding to build transaction anyway", "error", insufficient)
	}

	e.logger.Info(ctx, "prepending unwrap",
		"amount", asset.FormatUnits(balance.Wrapped, asset.NativeDecimals).String(),
	)
	return balance.Wrapped, nil
}

func transferCall(t domain.Transfer) (domain.Call, error) {
	if t.IsNative() {
		return domain.Call{To: t.Recipient, Value: new(big.Int).Set(t.Amount)}, nil
	}
	data, err := contracts.Pack("transfer", t.Recipient, t.Amount)
	if err != nil {
		return domain.Call{}, fmt.Errorf("pack transfer: %w", err)
	}
	return domain.Call{To: *t.Token, Value: new(big.Int), Data: data}, nil
}

func withdrawCall(wrapped common.Address, amount *big.Int) (domain.Call, error) {
	data, err := contracts.Pack("withdraw", amount)
	if err != nil {
		return domain.Call{}, fmt.Errorf("pack withdraw: %w", err)
	}
	return domain.Call{To: wrapped, Value: new(big.Int), Data: data}, nil
}

// Pack encodes calls as multiSend(bytes). Each call is packed as
// operation (1 byte), to (20), value (32), data length (32) and data.
func Pack(calls []domain.Call) ([]byte, error) {
	var packed []byte
	for _, c := range calls {
		value := c.Value
		if value == nil {
			value = new(big.Int)
		}
		packed = append(packed, domain.OperationCall)
		packed = append(packed, c.To.Bytes()...)
		packed = append(packed, common.LeftPadBytes(value.Bytes(), 32)...)
		packed = append(packed, common.LeftPadBytes(big.NewInt(int64(len(c.Data))).Bytes(), 32)...)
		packed = append(packed, c.Data...)
	}
	if packed == nil {
		packed = []byte{}
	}
	data, err := contracts.Pack("multiSend", packed)
	if err != nil {
		return nil, fmt.Errorf("pack multiSend: %w", err)
	}
	return data, nil
}
