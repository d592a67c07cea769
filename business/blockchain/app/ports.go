// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceReader reads account balances from a node.
type BalanceReader interface {
	// NativeBalance returns the native coin balance of account.
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)

	// TokenBalance returns the ERC20 balance of holder.
	TokenBalance(ctx context.Context, token, holder common.Address) (*big.Int, error)
}
