// Package domain contains the batch, slippage and solver types of the
// rewards context.
package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/frame"
)

// Batch data column names.
const (
	ColSolver               = "solver"
	ColPrimaryRewardETH     = "primary_reward_eth"
	ColNumQuotes            = "num_quotes"
	ColPartnerList          = "partner_list"
	ColPartnerFeeETH        = "partner_fee_eth"
	ColParticipatingSolvers = "participating_solvers"
	ColWinningScore         = "winning_score"
	ColReferenceScore       = "reference_score"
	ColTxHash               = "tx_hash"
)

// BatchColumns are the columns a batch table must carry.
var BatchColumns = []string{ColSolver, ColPrimaryRewardETH, ColNumQuotes, ColPartnerList, ColPartnerFeeETH}

// ScoreColumns can replace primary_reward_eth.
var ScoreColumns = []string{ColWinningScore, ColReferenceScore, ColTxHash}

// PartnerRef names a partner fee recipient and the app code it was earned under.
type PartnerRef struct {
	Recipient common.Address
	AppCode   string
}

// BatchDatum is the reduced data of one solver in one auction.
type BatchDatum struct {
	Solver           common.Address
	PrimaryRewardETH *big.Int
	NumQuotes        int64
	Partners         []PartnerRef
	// PartnerFeeETH is aligned with Partners.
	PartnerFeeETH        []*big.Int
	ParticipatingSolvers []common.Address
}

// ScoreCaps bound the primary reward derived from auction scores.
type ScoreCaps struct {
	Upper *big.Int
	Lower *big.Int
}

// PrimaryRewardFromScores is min(winning - reference, upper) for a settled
// auction and -min(reference, lower) for one that failed to settle.
func PrimaryRewardFromScores(winning, reference *big.Int, settled bool, caps ScoreCaps) *big.Int {
	if !settled {
		return new(big.Int).Neg(asset.MinInt(reference, caps.Lower))
	}
	return asset.MinInt(new(big.Int).Sub(winning, reference), caps.Upper)
}

// BatchRequirements returns the columns t must carry and whether the
// primary reward is derived from auction scores.
func BatchRequirements(t *frame.Table) ([]string, bool) {
	if t.Has(ColPrimaryRewardETH) || !t.Has(ColWinningScore) {
		return BatchColumns, false
	}
	return append([]string{ColSolver, ColNumQuotes, ColPartnerList, ColPartnerFeeETH}, ScoreColumns...), true
}

// ReadBatches decodes a batch table. A table carrying auction scores instead
// of primary_reward_eth has the reward derived with caps.
func ReadBatches(t *frame.Table, caps ScoreCaps) ([]BatchDatum, error) {
	required, fromScores := BatchRequirements(t)
	if err := t.Require(required...); err != nil {
		return nil, err
	}

	batches := make([]BatchDatum, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := frame.NewReader(t.Row(i))
		b := BatchDatum{
			Solver:        r.Address(ColSolver),
			NumQuotes:     r.Int(ColNumQuotes),
			PartnerFeeETH: r.WeiList(ColPartnerFeeETH),
		}
		if fromScores {
			b.PrimaryRewardETH = PrimaryRewardFromScores(
				r.WeiOrZero(ColWinningScore), r.WeiOrZero(ColReferenceScore), r.Has(ColTxHash), caps)
		} else {
			b.PrimaryRewardETH = r.WeiOrZero(ColPrimaryRewardETH)
		}
		if r.Has(ColParticipatingSolvers) {
			for _, s := range r.Strings(ColParticipatingSolvers) {
				addr, err := asset.ParseAddress(s)
				if err != nil {
					return nil, apperror.New(apperror.CodeInvalidValue,
						apperror.WithRowKey(r.Key()),
						apperror.WithContext(fmt.Sprintf("column %s", ColParticipatingSolvers)),
						apperror.WithCause(err),
					)
				}
				b.ParticipatingSolvers = append(b.ParticipatingSolvers, addr)
			}
		}
		partners, err := parsePartnerList(r.String(ColPartnerList))
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidValue,
				apperror.WithRowKey(r.Key()),
				apperror.WithContext(fmt.Sprintf("column %s", ColPartnerList)),
				apperror.WithCause(err),
			)
		}
		b.Partners = partners
		if err := r.Err(); err != nil {
			return nil, err
		}
		if len(b.Partners) != len(b.PartnerFeeETH) {
			return nil, apperror.New(apperror.CodeInvalidValue,
				apperror.WithRowKey(r.Key()),
				apperror.WithContext(fmt.Sprintf("%d partners but %d partner fees", len(b.Partners), len(b.PartnerFeeETH))),
			)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// parsePartnerList accepts a JSON list whose entries are either an address
// or an [address, app_code] pair.
func parsePartnerList(raw string) ([]PartnerRef, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		raw = `["` + strings.Join(strings.Split(raw[1:len(raw)-1], ","), `","`) + `"]`
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}

	refs := make([]PartnerRef, 0, len(items))
	for _, item := range items {
		var addr string
		var ref PartnerRef
		if err := json.Unmarshal(item, &addr); err != nil {
			var pair []string
			if err := json.Unmarshal(item, &pair); err != nil || len(pair) == 0 || len(pair) > 2 {
				return nil, fmt.Errorf("partner entry %s", item)
			}
			addr = pair[0]
			if len(pair) == 2 {
				ref.AppCode = pair[1]
			}
		}
		recipient, err := asset.ParseAddress(addr)
		if err != nil {
			return nil, err
		}
		ref.Recipient = recipient
		refs = append(refs, ref)
	}
	return refs, nil
}

// PartnerFeeTotal sums the partner fees reported by batch data.
func PartnerFeeTotal(batches []BatchDatum) *big.Int {
	total := new(big.Int)
	for _, b := range batches {
		total.Add(total, asset.Sum(b.PartnerFeeETH...))
	}
	return total
}
