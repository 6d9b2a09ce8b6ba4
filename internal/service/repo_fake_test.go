package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"coliseum/internal/models"
	"coliseum/internal/repository"
)

// fakeRepo is an in-memory Repository for service tests. Mutations take the
// lock so concurrent PlaceBet tests exercise real interleaving.
type fakeRepo struct {
	mu      sync.Mutex
	agents  map[uint64]*models.Agent
	fights  map[uint64]*models.Fight
	markets map[uint64]*models.Market
	bets    []*models.Bet

	nextAgent  uint64
	nextFight  uint64
	nextMarket uint64
	nextBet    uint64

	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		agents:  map[uint64]*models.Agent{},
		fights:  map[uint64]*models.Fight{},
		markets: map[uint64]*models.Market{},
	}
}

func (f *fakeRepo) addAgent(name string) *models.Agent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextAgent++
	a := &models.Agent{ID: f.nextAgent, Name: name, Owner: "0x0000000000000000000000000000000000000001", IsActive: true}
	f.agents[a.ID] = a
	return a
}

func (f *fakeRepo) addOpenMarket(agentA, agentB uint64) *models.Market {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMarket++
	m := &models.Market{
		ID:         f.nextMarket,
		FightID:    f.nextMarket,
		AgentA:     agentA,
		AgentB:     agentB,
		Status:     models.MarketStatusOpen,
		TotalPoolA: decimal.Zero,
		TotalPoolB: decimal.Zero,
	}
	f.markets[m.ID] = m
	return m
}

func (f *fakeRepo) InTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	if f.failWith != nil {
		return f.failWith
	}
	return fn(nil)
}

func (f *fakeRepo) CreateAgent(_ context.Context, item *models.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextAgent++
	item.ID = f.nextAgent
	cp := *item
	f.agents[item.ID] = &cp
	return nil
}

func (f *fakeRepo) GetAgentByID(_ context.Context, id uint64) (*models.Agent, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) ListAgents(_ context.Context, params repository.ListAgentsParams) ([]models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Agent
	for i := uint64(1); i <= f.nextAgent; i++ {
		a, ok := f.agents[i]
		if !ok {
			continue
		}
		if params.ActiveOnly && !a.IsActive {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepo) CountAgents(ctx context.Context, params repository.ListAgentsParams) (int64, error) {
	items, err := f.ListAgents(ctx, params)
	return int64(len(items)), err
}

func (f *fakeRepo) UpdateAgentProfile(_ context.Context, id uint64, isActive *bool, metadataURI *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[id]
	if !ok {
		return nil
	}
	if isActive != nil {
		a.IsActive = *isActive
	}
	if metadataURI != nil {
		a.MetadataURI = *metadataURI
	}
	return nil
}

func (f *fakeRepo) RecordFightOutcomeTx(_ context.Context, _ *gorm.DB, winnerID, loserID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.agents[winnerID]; ok {
		w.Wins++
		w.TotalBattles++
	}
	if l, ok := f.agents[loserID]; ok {
		l.Losses++
		l.TotalBattles++
	}
	return nil
}

func (f *fakeRepo) CreateFightTx(_ context.Context, _ *gorm.DB, item *models.Fight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextFight++
	item.ID = f.nextFight
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	cp := *item
	f.fights[item.ID] = &cp
	return nil
}

func (f *fakeRepo) GetFightByID(_ context.Context, id uint64) (*models.Fight, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fi, ok := f.fights[id]
	if !ok {
		return nil, nil
	}
	cp := *fi
	return &cp, nil
}

func (f *fakeRepo) ListFights(_ context.Context, params repository.ListFightsParams) ([]models.Fight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Fight
	for i := uint64(1); i <= f.nextFight; i++ {
		fi, ok := f.fights[i]
		if !ok {
			continue
		}
		if params.Status != nil && fi.Status != *params.Status {
			continue
		}
		out = append(out, *fi)
	}
	return out, nil
}

func (f *fakeRepo) CountFights(ctx context.Context, params repository.ListFightsParams) (int64, error) {
	items, err := f.ListFights(ctx, params)
	return int64(len(items)), err
}

func (f *fakeRepo) ResolveFightTx(_ context.Context, _ *gorm.DB, id uint64, winner uint64, battleLog []byte, reasoning string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fi, ok := f.fights[id]
	if !ok {
		return 0, nil
	}
	if fi.Status != models.FightStatusOpen && fi.Status != models.FightStatusInProgress {
		return 0, nil
	}
	fi.Status = models.FightStatusCompleted
	fi.Winner = &winner
	fi.Reasoning = reasoning
	fi.BattleLog = battleLog
	fi.ResolvedAt = &at
	return 1, nil
}

func (f *fakeRepo) ListStaleOpenFightIDs(_ context.Context, before time.Time, limit int) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint64
	for i := uint64(1); i <= f.nextFight; i++ {
		fi, ok := f.fights[i]
		if !ok || fi.Status != models.FightStatusOpen || !fi.CreatedAt.Before(before) {
			continue
		}
		m := f.marketByFight(fi.ID)
		if m != nil && m.TotalPoolA.IsZero() && m.TotalPoolB.IsZero() {
			ids = append(ids, fi.ID)
		}
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

func (f *fakeRepo) CancelFights(_ context.Context, ids []uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if fi, ok := f.fights[id]; ok && fi.Status == models.FightStatusOpen {
			fi.Status = models.FightStatusCancelled
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CreateMarketTx(_ context.Context, _ *gorm.DB, item *models.Market) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMarket++
	item.ID = f.nextMarket
	cp := *item
	f.markets[item.ID] = &cp
	return nil
}

func (f *fakeRepo) GetMarketByID(_ context.Context, id uint64) (*models.Market, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.markets[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) marketByFight(fightID uint64) *models.Market {
	for _, m := range f.markets {
		if m.FightID == fightID {
			return m
		}
	}
	return nil
}

func (f *fakeRepo) GetMarketByFightID(_ context.Context, fightID uint64) (*models.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.marketByFight(fightID)
	if m == nil {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) ListMarkets(_ context.Context, params repository.ListMarketsParams) ([]models.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Market
	for i := uint64(1); i <= f.nextMarket; i++ {
		m, ok := f.markets[i]
		if !ok {
			continue
		}
		if params.Status != nil && m.Status != *params.Status {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeRepo) CountMarkets(ctx context.Context, params repository.ListMarketsParams) (int64, error) {
	items, err := f.ListMarkets(ctx, params)
	return int64(len(items)), err
}

func (f *fakeRepo) AddToPoolTx(_ context.Context, _ *gorm.DB, marketID uint64, side repository.PoolSide, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.markets[marketID]
	if !ok {
		return nil
	}
	if side == repository.PoolSideB {
		m.TotalPoolB = m.TotalPoolB.Add(amount)
	} else {
		m.TotalPoolA = m.TotalPoolA.Add(amount)
	}
	return nil
}

func (f *fakeRepo) ResolveMarketTx(_ context.Context, _ *gorm.DB, marketID uint64, winner uint64, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.markets[marketID]
	if !ok || m.Status != models.MarketStatusOpen {
		return 0, nil
	}
	m.Status = models.MarketStatusResolved
	m.Winner = &winner
	m.ResolvedAt = &at
	return 1, nil
}

func (f *fakeRepo) CreateBetTx(_ context.Context, _ *gorm.DB, item *models.Bet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextBet++
	item.ID = f.nextBet
	cp := *item
	f.bets = append(f.bets, &cp)
	return nil
}

func (f *fakeRepo) GetBetByID(_ context.Context, id uint64) (*models.Bet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bets {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListBetsByMarket(_ context.Context, params repository.ListBetsParams) ([]models.Bet, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Bet
	for _, b := range f.bets {
		if b.MarketID != params.MarketID {
			continue
		}
		if params.Bettor != nil && b.Bettor != *params.Bettor {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeRepo) MarkBetClaimed(_ context.Context, id uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bets {
		if b.ID == id && !b.Claimed {
			b.Claimed = true
			return 1, nil
		}
	}
	return 0, nil
}
