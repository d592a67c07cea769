package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Safe transaction operations.
const (
	OperationCall         uint8 = 0
	OperationDelegateCall uint8 = 1
)

// Call is one call inside a multisend bundle.
type Call struct {
	To    common.Address `json:"to"`
	Value *big.Int       `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

// Multisend is the unsigned transaction paying a period from the safe.
type Multisend struct {
	Safe      common.Address `json:"safe"`
	To        common.Address `json:"to"`
	Operation uint8          `json:"operation"`
	Calls     []Call         `json:"calls"`
	Calldata  hexutil.Bytes  `json:"calldata"`
	Unwrapped *big.Int       `json:"unwrapped_wei,omitempty"`
}
