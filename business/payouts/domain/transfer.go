// Package domain contains the transfer, overdraft and summary types of the
// payouts context.
package domain

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
)

// Transfer is one payment out of the payment safe. A nil Token is the
// native currency.
type Transfer struct {
	Token     *common.Address
	Recipient common.Address
	Amount    *big.Int
}

// NewTransfer creates a transfer, rejecting non-positive amounts with
// NON_POSITIVE_TRANSFER.
func NewTransfer(token *common.Address, recipient common.Address, amount *big.Int) (Transfer, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Transfer{}, apperror.New(apperror.CodeNonPositiveTransfer,
			apperror.WithComponent(apperror.ComponentPayouts),
			apperror.WithRowKey(asset.Canonical(recipient)),
			apperror.WithContext(fmt.Sprintf("amount %v", amount)),
		)
	}
	t := Transfer{Recipient: recipient, Amount: new(big.Int).Set(amount)}
	if token != nil {
		tok := *token
		t.Token = &tok
	}
	return t, nil
}

// NativeTransfer creates a transfer of the native currency.
func NativeTransfer(recipient common.Address, amount *big.Int) (Transfer, error) {
	return NewTransfer(nil, recipient, amount)
}

// IsNative reports whether the transfer pays the native currency.
func (t Transfer) IsNative() bool {
	return t.Token == nil
}

// TokenKey is the canonical token address, empty for native.
func (t Transfer) TokenKey() string {
	if t.Token == nil {
		return ""
	}
	return asset.Canonical(*t.Token)
}

func (t Transfer) String() string {
	token := "native"
	if t.Token != nil {
		token = asset.Canonical(*t.Token)
	}
	return fmt.Sprintf("Transfer(token=%s, recipient=%s, amount=%s)", token, asset.Canonical(t.Recipient), t.Amount)
}

// Less orders by recipient, then token with native last, then larger amounts
// first.
func Less(a, b Transfer) bool {
	if c := asset.CompareAddresses(a.Recipient, b.Recipient); c != 0 {
		return c < 0
	}
	if a.IsNative() != b.IsNative() {
		return !a.IsNative()
	}
	if c := strings.Compare(a.TokenKey(), b.TokenKey()); c != 0 {
		return c < 0
	}
	return a.Amount.Cmp(b.Amount) > 0
}

// SortTransfers sorts in place under Less. Equal transfers keep their order.
func SortTransfers(transfers []Transfer) {
	sort.SliceStable(transfers, func(i, j int) bool {
		return Less(transfers[i], transfers[j])
	})
}

// Consolidate merges transfers of the same token to the same recipient and
// returns them sorted.
func Consolidate(transfers []Transfer) []Transfer {
	type key struct {
		recipient common.Address
		token     string
	}
	merged := make(map[key]int, len(transfers))
	out := make([]Transfer, 0, len(transfers))
	for _, t := range transfers {
		k := key{t.Recipient, t.TokenKey()}
		if i, ok := merged[k]; ok {
			out[i].Amount = new(big.Int).Add(out[i].Amount, t.Amount)
			continue
		}
		merged[k] = len(out)
		cp := t
		cp.Amount = new(big.Int).Set(t.Amount)
		out = append(out, cp)
	}
	SortTransfers(out)
	return out
}

// Totals sums native wei and reward token atoms over transfers. Transfers of
// other tokens are ignored.
func Totals(transfers []Transfer, rewardToken common.Address) (native, cow *big.Int) {
	native, cow = new(big.Int), new(big.Int)
	for _, t := range transfers {
		switch {
		case t.IsNative():
			native.Add(native, t.Amount)
		case *t.Token == rewardToken:
			cow.Add(cow, t.Amount)
		}
	}
	return native, cow
}
