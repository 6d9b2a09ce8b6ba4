package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"coliseum/internal/models"
)

// PoolSide selects which of a market's two pool columns an increment targets.
type PoolSide string

const (
	PoolSideA PoolSide = "a"
	PoolSideB PoolSide = "b"
)

type ListAgentsParams struct {
	Limit      int
	Offset     int
	ActiveOnly bool
}

type ListFightsParams struct {
	Limit  int
	Offset int
	Status *string
}

type ListMarketsParams struct {
	Limit  int
	Offset int
	Status *string
}

type ListBetsParams struct {
	MarketID uint64
	Bettor   *string
}

// Repository is the ledger store contract. Tx variants participate in an
// enclosing InTx transaction so a bet record and its pool increment commit or
// roll back together.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Agents.
	CreateAgent(ctx context.Context, item *models.Agent) error
	GetAgentByID(ctx context.Context, id uint64) (*models.Agent, error)
	ListAgents(ctx context.Context, params ListAgentsParams) ([]models.Agent, error)
	CountAgents(ctx context.Context, params ListAgentsParams) (int64, error)
	UpdateAgentProfile(ctx context.Context, id uint64, isActive *bool, metadataURI *string) error
	RecordFightOutcomeTx(ctx context.Context, tx *gorm.DB, winnerID, loserID uint64) error

	// Fights.
	CreateFightTx(ctx context.Context, tx *gorm.DB, item *models.Fight) error
	GetFightByID(ctx context.Context, id uint64) (*models.Fight, error)
	ListFights(ctx context.Context, params ListFightsParams) ([]models.Fight, error)
	CountFights(ctx context.Context, params ListFightsParams) (int64, error)
	ResolveFightTx(ctx context.Context, tx *gorm.DB, id uint64, winner uint64, battleLog []byte, reasoning string, at time.Time) (int64, error)
	ListStaleOpenFightIDs(ctx context.Context, before time.Time, limit int) ([]uint64, error)
	CancelFights(ctx context.Context, ids []uint64) (int64, error)

	// Markets. AddToPoolTx is a single SQL increment (pool = pool + ?) so
	// concurrent bets serialize on the row; ResolveMarketTx is a
	// compare-and-set on status=open and reports rows affected.
	CreateMarketTx(ctx context.Context, tx *gorm.DB, item *models.Market) error
	GetMarketByID(ctx context.Context, id uint64) (*models.Market, error)
	GetMarketByFightID(ctx context.Context, fightID uint64) (*models.Market, error)
	ListMarkets(ctx context.Context, params ListMarketsParams) ([]models.Market, error)
	CountMarkets(ctx context.Context, params ListMarketsParams) (int64, error)
	AddToPoolTx(ctx context.Context, tx *gorm.DB, marketID uint64, side PoolSide, amount decimal.Decimal) error
	ResolveMarketTx(ctx context.Context, tx *gorm.DB, marketID uint64, winner uint64, at time.Time) (int64, error)

	// Bets.
	CreateBetTx(ctx context.Context, tx *gorm.DB, item *models.Bet) error
	GetBetByID(ctx context.Context, id uint64) (*models.Bet, error)
	ListBetsByMarket(ctx context.Context, params ListBetsParams) ([]models.Bet, error)
	MarkBetClaimed(ctx context.Context, id uint64) (int64, error)
}
