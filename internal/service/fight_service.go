package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coliseum/internal/arena"
	"coliseum/internal/metrics"
	"coliseum/internal/models"
	"coliseum/internal/narrator"
	"coliseum/internal/repository"
)

// FightService owns the fight lifecycle. Every fight gets its market at
// creation; resolving a fight records the winner, bumps agent records, and
// resolves the market in the same transaction.
type FightService struct {
	Repo           repository.Repository
	Logger         *zap.Logger
	Metrics        *metrics.ArenaMetrics
	Narrator       narrator.Narrator
	PlatformFeePct int64
}

type CreateFightInput struct {
	AgentA      uint64
	AgentB      uint64
	StakeAmount string
}

type FightResolution struct {
	Fight  *models.Fight     `json:"fight"`
	Market *models.Market    `json:"market"`
	Reward arena.RewardSplit `json:"reward"`
}

func (s *FightService) agent(ctx context.Context, id uint64) (*models.Agent, error) {
	a, err := s.Repo.GetAgentByID(ctx, id)
	if err != nil {
		return nil, arena.Storage("get agent", err)
	}
	if a == nil {
		return nil, arena.NotFoundf("agent %d not found", id)
	}
	return a, nil
}

// CreateFight validates the pairing and creates the fight together with its
// open market (pools 0/0) in one transaction.
func (s *FightService) CreateFight(ctx context.Context, in CreateFightInput) (*models.Fight, *models.Market, error) {
	if in.AgentA == in.AgentB {
		return nil, nil, arena.Validationf("a fight needs two distinct agents")
	}
	stake, err := decimal.NewFromString(in.StakeAmount)
	if err != nil || stake.Sign() <= 0 {
		return nil, nil, arena.Validationf("stake must be a positive decimal, got %q", in.StakeAmount)
	}
	for _, id := range []uint64{in.AgentA, in.AgentB} {
		a, err := s.agent(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if !a.IsActive {
			return nil, nil, arena.InvalidStatef("agent %d is not active", id)
		}
	}

	fight := &models.Fight{
		AgentA:      in.AgentA,
		AgentB:      in.AgentB,
		StakeAmount: stake,
		Status:      models.FightStatusOpen,
	}
	var market *models.Market
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.CreateFightTx(ctx, tx, fight); err != nil {
			return err
		}
		m, err := NewMarket(fight.ID, fight.AgentA, fight.AgentB)
		if err != nil {
			return err
		}
		if err := s.Repo.CreateMarketTx(ctx, tx, m); err != nil {
			return err
		}
		market = m
		return nil
	})
	if err != nil {
		if IsBusinessError(err) {
			return nil, nil, err
		}
		return nil, nil, arena.Storage("create fight", err)
	}

	if s.Logger != nil {
		s.Logger.Info("fight created",
			zap.Uint64("fight_id", fight.ID),
			zap.Uint64("market_id", market.ID),
			zap.Uint64("agent_a", fight.AgentA),
			zap.Uint64("agent_b", fight.AgentB),
			zap.String("stake", stake.String()),
		)
	}
	return fight, market, nil
}

func (s *FightService) GetFight(ctx context.Context, id uint64) (*models.Fight, error) {
	f, err := s.Repo.GetFightByID(ctx, id)
	if err != nil {
		return nil, arena.Storage("get fight", err)
	}
	if f == nil {
		return nil, arena.NotFoundf("fight %d not found", id)
	}
	return f, nil
}

func (s *FightService) ListFights(ctx context.Context, params repository.ListFightsParams) ([]models.Fight, int64, error) {
	items, err := s.Repo.ListFights(ctx, params)
	if err != nil {
		return nil, 0, arena.Storage("list fights", err)
	}
	total, err := s.Repo.CountFights(ctx, params)
	if err != nil {
		return nil, 0, arena.Storage("count fights", err)
	}
	return items, total, nil
}

// ResolveFight records the externally decided winner: completes the fight,
// bumps both agents' records, resolves the market, and attaches the
// pass-through battle narrative. Single-shot, CAS-guarded like the market.
func (s *FightService) ResolveFight(ctx context.Context, fightID, winnerID uint64) (*FightResolution, error) {
	fight, err := s.GetFight(ctx, fightID)
	if err != nil {
		return nil, err
	}
	if fight.Status != models.FightStatusOpen && fight.Status != models.FightStatusInProgress {
		return nil, arena.InvalidStatef("fight %d cannot be resolved (status %s)", fight.ID, fight.Status)
	}
	if winnerID != fight.AgentA && winnerID != fight.AgentB {
		return nil, arena.Validationf("winner %d is not a fighter in fight %d", winnerID, fight.ID)
	}
	loserID := fight.AgentA
	if winnerID == fight.AgentA {
		loserID = fight.AgentB
	}

	winner, err := s.agent(ctx, winnerID)
	if err != nil {
		return nil, err
	}
	loser, err := s.agent(ctx, loserID)
	if err != nil {
		return nil, err
	}

	nar := s.Narrator
	if nar == nil {
		nar = narrator.Static{}
	}
	result, err := nar.Narrate(ctx, winner, loser)
	if err != nil {
		// Narrative is flavor, never a reason to fail resolution.
		if s.Logger != nil {
			s.Logger.Warn("narrator failed, using static fallback", zap.Error(err))
		}
		result, _ = narrator.Static{}.Narrate(ctx, winner, loser)
	}
	battleLog, _ := json.Marshal(result.Rounds)

	now := time.Now().UTC()
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.Repo.ResolveFightTx(ctx, tx, fight.ID, winnerID, battleLog, result.Reasoning, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return arena.InvalidStatef("fight %d cannot be resolved (status %s)", fight.ID, fight.Status)
		}
		if err := s.Repo.RecordFightOutcomeTx(ctx, tx, winnerID, loserID); err != nil {
			return err
		}
		market, err := s.Repo.GetMarketByFightID(ctx, fight.ID)
		if err != nil {
			return err
		}
		if market != nil {
			if _, err := s.Repo.ResolveMarketTx(ctx, tx, market.ID, winnerID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if IsBusinessError(err) {
			return nil, err
		}
		return nil, arena.Storage("resolve fight", err)
	}

	if s.Metrics != nil {
		s.Metrics.MarketsResolved.Inc()
	}
	reward := arena.SplitStakeReward(fight.StakeAmount, s.PlatformFeePct)
	if s.Logger != nil {
		s.Logger.Info("fight resolved",
			zap.Uint64("fight_id", fight.ID),
			zap.Uint64("winner", winnerID),
			zap.String("winner_reward", reward.WinnerReward.String()),
			zap.String("platform_fee", reward.PlatformFee.String()),
		)
	}

	updated, err := s.GetFight(ctx, fightID)
	if err != nil {
		return nil, err
	}
	market, err := s.Repo.GetMarketByFightID(ctx, fightID)
	if err != nil {
		return nil, arena.Storage("get market", err)
	}
	return &FightResolution{Fight: updated, Market: market, Reward: reward}, nil
}

// CancelStaleFights cancels open fights older than maxAge whose market took
// no bets. Driven by the cron sweep.
func (s *FightService) CancelStaleFights(ctx context.Context, maxAge time.Duration, limit int) (int64, error) {
	before := time.Now().UTC().Add(-maxAge)
	ids, err := s.Repo.ListStaleOpenFightIDs(ctx, before, limit)
	if err != nil {
		return 0, arena.Storage("list stale fights", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.Repo.CancelFights(ctx, ids)
	if err != nil {
		return 0, arena.Storage("cancel fights", err)
	}
	if s.Metrics != nil {
		s.Metrics.FightsCancelled.Add(float64(n))
	}
	if s.Logger != nil && n > 0 {
		s.Logger.Info("stale fights cancelled", zap.Int64("count", n))
	}
	return n, nil
}
