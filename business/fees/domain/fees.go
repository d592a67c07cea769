package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ProtocolFee is one fee taken from a trade.
type ProtocolFee struct {
	Kind   FeeKind
	Amount *big.Int
	Token  common.Address
	// Native wei per token atom, scaled by 1e18.
	NativePrice  *big.Rat
	IsPartnerFee bool
}

// NativeValue returns the exact fee value in native wei.
func (f ProtocolFee) NativeValue() *big.Rat {
	v := new(big.Rat).SetInt(f.Amount)
	v.Mul(v, f.NativePrice)
	return v.Quo(v, nativePriceScale)
}

var nativePriceScale = new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// TradeFees is the decomposition of one trade.
type TradeFees struct {
	AuctionID     int64
	OrderUID      []byte
	WinningSolver common.Address

	// NetworkFee is in native wei, NetworkFeeSell in sell token atoms.
	NetworkFee     *big.Int
	NetworkFeeSell *big.Int

	// Amounts as they would have been without protocol fees.
	SellBeforeFees *big.Int
	BuyBeforeFees  *big.Int

	// ProtocolFees are in application order.
	ProtocolFees []ProtocolFee

	Recipient *common.Address
	AppCode   string
}

// FeeRow is the protocol or partner fee owed to one recipient.
type FeeRow struct {
	Recipient      common.Address
	FeeNative      *big.Int
	FeeCow         *big.Int
	FromPartnerFee bool
}

// PartnerFee is the partner fee owed to one recipient before and after tax.
type PartnerFee struct {
	Recipient common.Address
	Raw       *big.Int
	Tax       *big.Int
}

// Net returns the amount paid to the recipient.
func (p PartnerFee) Net() *big.Int {
	return new(big.Int).Sub(p.Raw, p.Tax)
}

// FeeSummary is the aggregated protocol and partner fee outcome of a period.
type FeeSummary struct {
	// Rows are sorted by recipient.
	Rows []FeeRow

	ProtocolFee   *big.Int
	PartnerFeeRaw *big.Int
	PartnerFeeTax *big.Int

	// Partners are sorted by recipient.
	Partners []PartnerFee
}

// PartnerFee returns the total paid to partners after tax.
func (s FeeSummary) PartnerFee() *big.Int {
	return new(big.Int).Sub(s.PartnerFeeRaw, s.PartnerFeeTax)
}
