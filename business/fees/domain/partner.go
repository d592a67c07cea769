package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/internal/asset"
)

type taxKey struct {
	recipient string
	appCode   string
}

// TaxTable resolves the share of a partner fee the protocol keeps. Lookups
// try (recipient, app code), then the recipient alone, then the default.
type TaxTable struct {
	def      *big.Rat
	exact    map[taxKey]*big.Rat
	wildcard map[string]*big.Rat
}

// NewTaxTable creates a table with the given default cut.
func NewTaxTable(defaultCut *big.Rat) *TaxTable {
	return &TaxTable{
		def:      new(big.Rat).Set(defaultCut),
		exact:    make(map[taxKey]*big.Rat),
		wildcard: make(map[string]*big.Rat),
	}
}

// Set registers a cut. An empty app code applies to every app code of the
// recipient.
func (t *TaxTable) Set(recipient common.Address, appCode string, cut *big.Rat) {
	r := asset.Canonical(recipient)
	if appCode == "" {
		t.wildcard[r] = new(big.Rat).Set(cut)
		return
	}
	t.exact[taxKey{recipient: r, appCode: strings.ToLower(appCode)}] = new(big.Rat).Set(cut)
}

// Cut returns the tax for a recipient and app code.
func (t *TaxTable) Cut(recipient common.Address, appCode string) *big.Rat {
	r := asset.Canonical(recipient)
	if cut, ok := t.exact[taxKey{recipient: r, appCode: strings.ToLower(appCode)}]; ok {
		return new(big.Rat).Set(cut)
	}
	if cut, ok := t.wildcard[r]; ok {
		return new(big.Rat).Set(cut)
	}
	return new(big.Rat).Set(t.def)
}

// Default returns the default cut.
func (t *TaxTable) Default() *big.Rat {
	return new(big.Rat).Set(t.def)
}

// Redirect moves partner fees of one recipient to another address. An empty
// AppCode matches every app code.
type Redirect struct {
	From    common.Address
	To      common.Address
	AppCode string
}

// Redirects is an ordered list of rewrites; the first match wins.
type Redirects []Redirect

// Apply returns the recipient fees should be paid to.
func (rs Redirects) Apply(recipient common.Address, appCode string) common.Address {
	for _, r := range rs {
		if r.From != recipient {
			continue
		}
		if r.AppCode == "" || strings.EqualFold(r.AppCode, appCode) {
			return r.To
		}
	}
	return recipient
}
