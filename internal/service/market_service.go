package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coliseum/internal/arena"
	"coliseum/internal/metrics"
	"coliseum/internal/models"
	"coliseum/internal/repository"
	"coliseum/internal/stream"
	"coliseum/internal/wallet"
)

// MarketService is the market lifecycle manager and bet admission service.
// All pool mutation goes through here; reads are side-effect free.
type MarketService struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	Metrics *metrics.ArenaMetrics
	Stream  *stream.Hub
}

// OddsSnapshot is the boundary shape for an odds query. Odds are fixed to
// four decimals; pool balances are full-precision decimal strings.
type OddsSnapshot struct {
	MarketID   uint64 `json:"marketId"`
	AgentA     uint64 `json:"agentA"`
	AgentB     uint64 `json:"agentB"`
	OddsA      string `json:"oddsA"`
	OddsB      string `json:"oddsB"`
	TotalPoolA string `json:"totalPoolA"`
	TotalPoolB string `json:"totalPoolB"`
	TotalPool  string `json:"totalPool"`
}

type PlaceBetInput struct {
	MarketID uint64
	Bettor   string
	AgentID  uint64
	Amount   string
}

type ClaimResult struct {
	Bet    models.Bet      `json:"bet"`
	Payout decimal.Decimal `json:"payout"`
}

// NewMarket builds the open, empty market backing a fight.
func NewMarket(fightID, agentA, agentB uint64) (*models.Market, error) {
	if agentA == agentB {
		return nil, arena.Validationf("market sides must differ (agent %d on both)", agentA)
	}
	return &models.Market{
		FightID:    fightID,
		AgentA:     agentA,
		AgentB:     agentB,
		Status:     models.MarketStatusOpen,
		TotalPoolA: decimal.Zero,
		TotalPoolB: decimal.Zero,
	}, nil
}

func (s *MarketService) getMarket(ctx context.Context, id uint64) (*models.Market, error) {
	m, err := s.Repo.GetMarketByID(ctx, id)
	if err != nil {
		return nil, arena.Storage("get market", err)
	}
	if m == nil {
		return nil, arena.NotFoundf("market %d not found", id)
	}
	return m, nil
}

func (s *MarketService) GetMarket(ctx context.Context, id uint64) (*models.Market, error) {
	return s.getMarket(ctx, id)
}

func (s *MarketService) ListMarkets(ctx context.Context, params repository.ListMarketsParams) ([]models.Market, int64, error) {
	items, err := s.Repo.ListMarkets(ctx, params)
	if err != nil {
		return nil, 0, arena.Storage("list markets", err)
	}
	total, err := s.Repo.CountMarkets(ctx, params)
	if err != nil {
		return nil, 0, arena.Storage("count markets", err)
	}
	return items, total, nil
}

// GetOdds renders current odds from current pool state. Read-only; a market
// with empty pools reads 50/50 rather than failing.
func (s *MarketService) GetOdds(ctx context.Context, marketID uint64) (OddsSnapshot, error) {
	m, err := s.getMarket(ctx, marketID)
	if err != nil {
		return OddsSnapshot{}, err
	}
	if s.Metrics != nil {
		s.Metrics.OddsQueries.Inc()
	}
	return snapshotOdds(m), nil
}

func snapshotOdds(m *models.Market) OddsSnapshot {
	odds := arena.ComputeOdds(m.TotalPoolA, m.TotalPoolB)
	a, b := odds.Display()
	return OddsSnapshot{
		MarketID:   m.ID,
		AgentA:     m.AgentA,
		AgentB:     m.AgentB,
		OddsA:      a,
		OddsB:      b,
		TotalPoolA: m.TotalPoolA.String(),
		TotalPoolB: m.TotalPoolB.String(),
		TotalPool:  m.TotalPoolA.Add(m.TotalPoolB).String(),
	}
}

// PlaceBet validates and records a wager. The bet insert and pool increment
// run in one transaction; the increment itself is a single SQL add so
// concurrent bets on the same market never lose an update.
//
// Precondition order, first failure wins: market exists, market open, side
// valid, amount positive, bettor address well-formed.
func (s *MarketService) PlaceBet(ctx context.Context, in PlaceBetInput) (*models.Bet, error) {
	m, err := s.getMarket(ctx, in.MarketID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MarketStatusOpen {
		s.Metrics.RecordBetRejected("market_closed")
		return nil, arena.InvalidStatef("market %d not open for betting (status %s)", m.ID, m.Status)
	}
	if !m.IsSide(in.AgentID) {
		s.Metrics.RecordBetRejected("invalid_side")
		return nil, arena.Validationf("agent %d is not a side of market %d", in.AgentID, m.ID)
	}
	amount, err := decimal.NewFromString(in.Amount)
	if err != nil || amount.Sign() <= 0 {
		s.Metrics.RecordBetRejected("invalid_amount")
		return nil, arena.Validationf("amount must be a positive decimal, got %q", in.Amount)
	}
	if !wallet.IsValidAddress(in.Bettor) {
		s.Metrics.RecordBetRejected("invalid_bettor")
		return nil, arena.Validationf("bettor must be a 0x-prefixed address")
	}

	side := repository.PoolSideA
	if in.AgentID == m.AgentB {
		side = repository.PoolSideB
	}
	bet := &models.Bet{
		MarketID: m.ID,
		Bettor:   wallet.Normalize(in.Bettor),
		AgentID:  in.AgentID,
		Amount:   amount,
		Claimed:  false,
	}

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.CreateBetTx(ctx, tx, bet); err != nil {
			return err
		}
		return s.Repo.AddToPoolTx(ctx, tx, m.ID, side, amount)
	})
	if err != nil {
		return nil, arena.Storage("place bet", err)
	}

	s.Metrics.RecordBet(amount)
	if s.Logger != nil {
		s.Logger.Info("bet placed",
			zap.Uint64("market_id", m.ID),
			zap.Uint64("bet_id", bet.ID),
			zap.Uint64("agent_id", in.AgentID),
			zap.String("amount", amount.String()),
		)
	}
	s.publishOdds(ctx, m.ID)
	return bet, nil
}

// ResolveMarket flips status open -> resolved and records the winner, exactly
// once. The pools are left untouched; they are the settlement input. A loser
// of a concurrent resolution race gets ErrInvalidState, same as a late call.
func (s *MarketService) ResolveMarket(ctx context.Context, marketID, winner uint64) (*models.Market, error) {
	m, err := s.getMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MarketStatusOpen {
		return nil, arena.InvalidStatef("market %d already resolved", m.ID)
	}
	if !m.IsSide(winner) {
		return nil, arena.Validationf("winner %d is not a side of market %d", winner, m.ID)
	}

	rows, err := s.Repo.ResolveMarketTx(ctx, nil, m.ID, winner, time.Now().UTC())
	if err != nil {
		return nil, arena.Storage("resolve market", err)
	}
	if rows == 0 {
		return nil, arena.InvalidStatef("market %d already resolved", m.ID)
	}

	if s.Metrics != nil {
		s.Metrics.MarketsResolved.Inc()
	}
	if s.Logger != nil {
		s.Logger.Info("market resolved",
			zap.Uint64("market_id", m.ID),
			zap.Uint64("winner", winner),
			zap.String("total_pool_a", m.TotalPoolA.String()),
			zap.String("total_pool_b", m.TotalPoolB.String()),
		)
	}
	return s.getMarket(ctx, marketID)
}

// ListBets returns a market's bets in insertion order.
func (s *MarketService) ListBets(ctx context.Context, marketID uint64, bettor *string) ([]models.Bet, error) {
	if _, err := s.getMarket(ctx, marketID); err != nil {
		return nil, err
	}
	items, err := s.Repo.ListBetsByMarket(ctx, repository.ListBetsParams{MarketID: marketID, Bettor: bettor})
	if err != nil {
		return nil, arena.Storage("list bets", err)
	}
	return items, nil
}

// Claims computes the payout owed to each bet on a resolved market. Pure
// preview: nothing is marked claimed, so the disbursement layer can call it
// then flip claimed itself.
func (s *MarketService) Claims(ctx context.Context, marketID uint64, bettor *string) ([]ClaimResult, error) {
	m, err := s.getMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MarketStatusResolved {
		return nil, arena.InvalidStatef("market %d is not resolved (status %s)", m.ID, m.Status)
	}
	bets, err := s.Repo.ListBetsByMarket(ctx, repository.ListBetsParams{MarketID: marketID, Bettor: bettor})
	if err != nil {
		return nil, arena.Storage("list bets", err)
	}

	out := make([]ClaimResult, 0, len(bets))
	for i := range bets {
		payout, err := arena.ComputeClaim(m, &bets[i])
		if err != nil {
			return nil, err
		}
		out = append(out, ClaimResult{Bet: bets[i], Payout: payout})
		if s.Metrics != nil {
			s.Metrics.ClaimsComputed.Inc()
		}
	}
	return out, nil
}

// PreviewPayout projects a pari-mutuel payout for a hypothetical stake
// without touching any pool.
func (s *MarketService) PreviewPayout(ctx context.Context, marketID, agentID uint64, amount string) (decimal.Decimal, error) {
	m, err := s.getMarket(ctx, marketID)
	if err != nil {
		return decimal.Zero, err
	}
	if !m.IsSide(agentID) {
		return decimal.Zero, arena.Validationf("agent %d is not a side of market %d", agentID, m.ID)
	}
	stake, err := decimal.NewFromString(amount)
	if err != nil || stake.Sign() <= 0 {
		return decimal.Zero, arena.Validationf("amount must be a positive decimal, got %q", amount)
	}
	sidePool, otherPool := m.TotalPoolA, m.TotalPoolB
	if agentID == m.AgentB {
		sidePool, otherPool = m.TotalPoolB, m.TotalPoolA
	}
	return arena.ProjectPayout(stake, sidePool, otherPool), nil
}

func (s *MarketService) publishOdds(ctx context.Context, marketID uint64) {
	if s.Stream == nil {
		return
	}
	m, err := s.Repo.GetMarketByID(ctx, marketID)
	if err != nil || m == nil {
		return
	}
	snap := snapshotOdds(m)
	s.Stream.Publish(stream.OddsUpdate{
		MarketID:   m.ID,
		OddsA:      snap.OddsA,
		OddsB:      snap.OddsB,
		TotalPoolA: snap.TotalPoolA,
		TotalPoolB: snap.TotalPoolB,
		At:         time.Now().UTC(),
	})
}

// IsBusinessError reports whether err is one of the caller-facing kinds (as
// opposed to a storage failure worth retrying).
func IsBusinessError(err error) bool {
	return errors.Is(err, arena.ErrValidation) ||
		errors.Is(err, arena.ErrNotFound) ||
		errors.Is(err, arena.ErrInvalidState)
}
