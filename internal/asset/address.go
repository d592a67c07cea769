package asset

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress parses a 0x-prefixed 40-hex address in any letter case.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// MustParseAddress is ParseAddress for literals.
func MustParseAddress(s string) common.Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Canonical returns the lowercase 0x-prefixed hex form.
func Canonical(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// CompareAddresses orders addresses by their canonical form.
func CompareAddresses(a, b common.Address) int {
	return strings.Compare(Canonical(a), Canonical(b))
}
