package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/internal/asset"
)

// Overdraft is a solver debt carried into the next period.
type Overdraft struct {
	Period  string
	Account common.Address
	Name    string
	Wei     *big.Int
}

func (o Overdraft) String() string {
	return fmt.Sprintf("Overdraft(solver=%s (%s),period=%s,owed=%s native token units)",
		asset.Canonical(o.Account), o.Name, o.Period, asset.FormatUnits(o.Wei, asset.NativeDecimals).String())
}
