// Package arena holds the pari-mutuel market math: odds from pool ratios,
// payout previews, and settlement claims. Everything here is pure; pool
// mutation lives behind the repository.
package arena

import (
	"github.com/shopspring/decimal"
)

// OddsDisplayPlaces is how many decimals odds are rounded to at the boundary.
// Internal math keeps full precision so repeated queries never compound error.
const OddsDisplayPlaces = 4

var (
	half = decimal.New(5, -1)
	one  = decimal.NewFromInt(1)
)

// Odds is the pool-share probability pair for a market's two sides.
// OddsA + OddsB is exactly 1.
type Odds struct {
	A decimal.Decimal
	B decimal.Decimal
}

// ComputeOdds maps two pool balances to a probability pair. A market with no
// liquidity yet has no information, so it reads 50/50 instead of failing.
func ComputeOdds(poolA, poolB decimal.Decimal) Odds {
	total := poolA.Add(poolB)
	if total.Sign() <= 0 {
		return Odds{A: half, B: half}
	}
	a := poolA.Div(total)
	return Odds{A: a, B: one.Sub(a)}
}

// Display returns the two odds as strings rounded to OddsDisplayPlaces.
func (o Odds) Display() (string, string) {
	return o.A.StringFixed(OddsDisplayPlaces), o.B.StringFixed(OddsDisplayPlaces)
}

// ProjectPayout previews the pari-mutuel payout for a stake as if it were
// already added to its side's pool:
//
//	payout = stake + stake/(sidePool+stake) * otherPool
//
// It never mutates anything and never fails for non-negative inputs.
func ProjectPayout(stake, sidePool, otherPool decimal.Decimal) decimal.Decimal {
	denom := sidePool.Add(stake)
	if denom.Sign() <= 0 {
		return stake
	}
	return stake.Add(stake.Div(denom).Mul(otherPool))
}
