package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/business/blockchain/domain"
)

// BlockchainService coordinates blockchain reads.
type BlockchainService struct {
	reader BalanceReader
}

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(reader BalanceReader) *BlockchainService {
	return &BlockchainService{reader: reader}
}

// SafeBalance reads the native balance of safe and, only when it does not
// cover needed, its balance of the wrapped token.
func (s *BlockchainService) SafeBalance(ctx context.Context, safe, wrapped common.Address, needed *big.Int) (domain.SafeBalance, error) {
	native, err := s.reader.NativeBalance(ctx, safe)
	if err != nil {
		return domain.SafeBalance{}, err
	}
	b := domain.SafeBalance{Safe: safe, Native: native, Wrapped: new(big.Int)}
	if b.Covers(needed) {
		return b, nil
	}
	if b.Wrapped, err = s.reader.TokenBalance(ctx, wrapped, safe); err != nil {
		return domain.SafeBalance{}, err
	}
	return b, nil
}
