package app

import "math/big"

// Converter converts native wei into reward token atoms.
type Converter interface {
	NativeToToken(native *big.Int) *big.Int
}
