package multisend

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const contractsABI = `[
	{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"withdraw","type":"function","inputs":[{"name":"wad","type":"uint256"}],"outputs":[]},
	{"name":"multiSend","type":"function","inputs":[{"name":"transactions","type":"bytes"}],"outputs":[]}
]`

// contracts holds the ERC20 transfer, WETH withdraw and Safe multiSend
// methods.
var contracts = mustParse(contractsABI)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("multisend: parse abi: " + err.Error())
	}
	return parsed
}
