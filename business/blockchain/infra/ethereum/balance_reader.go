package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/cowprotocol/solver-rewards/business/blockchain/app"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/circuitbreaker"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

const (
	tracerName = "github.com/cowprotocol/solver-rewards/blockchain"
	meterName  = "github.com/cowprotocol/solver-rewards/blockchain"
)

const balanceOfABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// ChainReader is the subset of ethclient.Client used for balance reads.
type ChainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// BalanceReader reads latest balances through a circuit breaker.
type BalanceReader struct {
	client ChainReader
	erc20  abi.ABI
	logger logger.LoggerInterface

	cb *circuitbreaker.CircuitBreaker[*big.Int]

	tracer trace.Tracer
	reads  metric.Int64Counter
}

var _ app.BalanceReader = (*BalanceReader)(nil)

// NewBalanceReader creates a reader over client.
func NewBalanceReader(client ChainReader, log logger.LoggerInterface) (*BalanceReader, error) {
	erc20, err := abi.JSON(strings.NewReader(balanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	reads, err := otel.Meter(meterName).Int64Counter(
		"chain_balance_reads_total",
		metric.WithDescription("Total balance reads"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &BalanceReader{
		client: client,
		erc20:  erc20,
		logger: log,
		cb:     circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("balance-reader")),
		tracer: otel.Tracer(tracerName),
		reads:  reads,
	}, nil
}

// NativeBalance implements app.BalanceReader.
func (r *BalanceReader) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	ctx, span := r.tracer.Start(ctx, "chain.native_balance",
		trace.WithAttributes(attribute.String("account", asset.Canonical(account))),
	)
	defer span.End()
	r.reads.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "native")))

	balance, err := r.cb.Execute(func() (*big.Int, error) {
		return r.client.BalanceAt(ctx, account, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, apperror.New(apperror.CodeChainReadFailed,
			apperror.WithComponent(apperror.ComponentBlockchain),
			apperror.WithCause(err),
			apperror.WithContext("native balance of "+asset.Canonical(account)))
	}

	span.SetStatus(codes.Ok, "read")
	r.logger.Debug(ctx, "native balance read", "account", asset.Canonical(account), "wei", balance.String())
	return balance, nil
}

// TokenBalance implements app.BalanceReader.
func (r *BalanceReader) TokenBalance(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	ctx, span := r.tracer.Start(ctx, "chain.token_balance",
		trace.WithAttributes(
			attribute.String("token", asset.Canonical(token)),
			attribute.String("holder", asset.Canonical(holder)),
		),
	)
	defer span.End()
	r.reads.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "erc20")))

	data, err := r.erc20.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}

	balance, err := r.cb.Execute(func() (*big.Int, error) {
		out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		if err != nil {
			return nil, err
		}
		values, err := r.erc20.Unpack("balanceOf", out)
		if err != nil {
			return nil, err
		}
		return abi.ConvertType(values[0], new(big.Int)).(*big.Int), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, apperror.New(apperror.CodeChainReadFailed,
			apperror.WithComponent(apperror.ComponentBlockchain),
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("balanceOf %s on %s", asset.Canonical(holder), asset.Canonical(token))))
	}

	span.SetStatus(codes.Ok, "read")
	return balance, nil
}
