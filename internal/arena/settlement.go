package arena

import (
	"github.com/shopspring/decimal"

	"coliseum/internal/models"
)

// ComputeClaim returns the payout a bet is owed on a resolved market. Losing
// bets forfeit their stake and claim exactly zero; winning bets take back
// their stake plus a share of the losing pool proportional to their share of
// the winning pool. Summed over the winning side this reproduces the whole
// pool, the house takes no cut here.
//
// The function is pure: it does not mark the bet claimed or move funds.
func ComputeClaim(m *models.Market, b *models.Bet) (decimal.Decimal, error) {
	if m.Status != models.MarketStatusResolved || m.Winner == nil {
		return decimal.Zero, InvalidStatef("market %d is not resolved (status %s)", m.ID, m.Status)
	}
	if b.AgentID != *m.Winner {
		return decimal.Zero, nil
	}

	winPool, losePool := m.TotalPoolA, m.TotalPoolB
	if *m.Winner == m.AgentB {
		winPool, losePool = m.TotalPoolB, m.TotalPoolA
	}
	// A winning bet's own amount is inside winPool, so winPool > 0 whenever
	// this branch runs; the guard only covers inconsistent input records.
	if winPool.Sign() <= 0 {
		return b.Amount, nil
	}
	return b.Amount.Add(b.Amount.Div(winPool).Mul(losePool)), nil
}
