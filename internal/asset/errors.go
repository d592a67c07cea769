package asset

import "errors"

var (
	ErrInvalidAddress = errors.New("asset: invalid address")
	ErrInvalidAmount  = errors.New("asset: invalid amount")
	ErrZeroRate       = errors.New("asset: zero exchange rate")
)
