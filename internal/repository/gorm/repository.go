package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"coliseum/internal/models"
	"coliseum/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// conn picks the enclosing transaction when one is passed in.
func (s *Store) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// --- Agents ------------------------------------------------------------------

func (s *Store) CreateAgent(ctx context.Context, item *models.Agent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetAgentByID(ctx context.Context, id uint64) (*models.Agent, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Agent
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListAgents(ctx context.Context, params repository.ListAgentsParams) ([]models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Agent{})
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Agent
	if err := query.Order("id asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAgents(ctx context.Context, params repository.ListAgentsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Agent{})
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateAgentProfile(ctx context.Context, id uint64, isActive *bool, metadataURI *string) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if isActive != nil {
		updates["is_active"] = *isActive
	}
	if metadataURI != nil {
		updates["metadata_uri"] = strings.TrimSpace(*metadataURI)
	}
	return s.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (s *Store) RecordFightOutcomeTx(ctx context.Context, tx *gorm.DB, winnerID, loserID uint64) error {
	if s == nil || s.db == nil || winnerID == 0 || loserID == 0 {
		return nil
	}
	conn := s.conn(tx)
	if err := conn.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", winnerID).
		Updates(map[string]any{
			"wins":          gorm.Expr("wins + 1"),
			"total_battles": gorm.Expr("total_battles + 1"),
			"updated_at":    time.Now().UTC(),
		}).Error; err != nil {
		return err
	}
	return conn.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", loserID).
		Updates(map[string]any{
			"losses":        gorm.Expr("losses + 1"),
			"total_battles": gorm.Expr("total_battles + 1"),
			"updated_at":    time.Now().UTC(),
		}).Error
}

// --- Fights ------------------------------------------------------------------

func (s *Store) CreateFightTx(ctx context.Context, tx *gorm.DB, item *models.Fight) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.conn(tx).WithContext(ctx).Create(item).Error
}

func (s *Store) GetFightByID(ctx context.Context, id uint64) (*models.Fight, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Fight
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListFights(ctx context.Context, params repository.ListFightsParams) ([]models.Fight, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Fight{})
	query = applyStatusFilter(query, params.Status)
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Fight
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountFights(ctx context.Context, params repository.ListFightsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Fight{})
	query = applyStatusFilter(query, params.Status)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ResolveFightTx(ctx context.Context, tx *gorm.DB, id uint64, winner uint64, battleLog []byte, reasoning string, at time.Time) (int64, error) {
	if s == nil || s.db == nil || id == 0 {
		return 0, nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	updates := map[string]any{
		"status":      models.FightStatusCompleted,
		"winner":      winner,
		"reasoning":   reasoning,
		"resolved_at": at,
	}
	if len(battleLog) > 0 {
		updates["battle_log"] = battleLog
	}
	res := s.conn(tx).WithContext(ctx).
		Model(&models.Fight{}).
		Where("id = ?", id).
		Where("status IN ?", []string{models.FightStatusOpen, models.FightStatusInProgress}).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (s *Store) ListStaleOpenFightIDs(ctx context.Context, before time.Time, limit int) ([]uint64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 100)
	var ids []uint64
	err := s.db.WithContext(ctx).
		Model(&models.Fight{}).
		Joins("JOIN markets ON markets.fight_id = fights.id").
		Where("fights.status = ?", models.FightStatusOpen).
		Where("fights.created_at < ?", before).
		Where("markets.total_pool_a = 0 AND markets.total_pool_b = 0").
		Order("fights.created_at asc").
		Limit(limit).
		Pluck("fights.id", &ids).Error
	return ids, err
}

func (s *Store) CancelFights(ctx context.Context, ids []uint64) (int64, error) {
	if s == nil || s.db == nil || len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Fight{}).
		Where("id IN ?", ids).
		Where("status = ?", models.FightStatusOpen).
		Updates(map[string]any{"status": models.FightStatusCancelled})
	return res.RowsAffected, res.Error
}

// --- Markets -----------------------------------------------------------------

func (s *Store) CreateMarketTx(ctx context.Context, tx *gorm.DB, item *models.Market) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.conn(tx).WithContext(ctx).Create(item).Error
}

func (s *Store) GetMarketByID(ctx context.Context, id uint64) (*models.Market, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Market
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetMarketByFightID(ctx context.Context, fightID uint64) (*models.Market, error) {
	if s == nil || s.db == nil || fightID == 0 {
		return nil, nil
	}
	var item models.Market
	err := s.db.WithContext(ctx).First(&item, "fight_id = ?", fightID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMarkets(ctx context.Context, params repository.ListMarketsParams) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Market{})
	query = applyStatusFilter(query, params.Status)
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Market
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountMarkets(ctx context.Context, params repository.ListMarketsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Market{})
	query = applyStatusFilter(query, params.Status)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// AddToPoolTx increments one pool column in a single UPDATE so concurrent
// bets never lose an increment, in or out of process.
func (s *Store) AddToPoolTx(ctx context.Context, tx *gorm.DB, marketID uint64, side repository.PoolSide, amount decimal.Decimal) error {
	if s == nil || s.db == nil || marketID == 0 {
		return nil
	}
	column := "total_pool_a"
	if side == repository.PoolSideB {
		column = "total_pool_b"
	}
	return s.conn(tx).WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ?", marketID).
		Update(column, gorm.Expr(column+" + ?", amount)).
		Error
}

// ResolveMarketTx flips an open market to resolved. The status guard makes it
// a compare-and-set; callers treat zero rows affected as "already resolved".
func (s *Store) ResolveMarketTx(ctx context.Context, tx *gorm.DB, marketID uint64, winner uint64, at time.Time) (int64, error) {
	if s == nil || s.db == nil || marketID == 0 {
		return 0, nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res := s.conn(tx).WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ?", marketID).
		Where("status = ?", models.MarketStatusOpen).
		Updates(map[string]any{
			"status":      models.MarketStatusResolved,
			"winner":      winner,
			"resolved_at": at,
		})
	return res.RowsAffected, res.Error
}

// --- Bets --------------------------------------------------------------------

func (s *Store) CreateBetTx(ctx context.Context, tx *gorm.DB, item *models.Bet) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.conn(tx).WithContext(ctx).Create(item).Error
}

func (s *Store) GetBetByID(ctx context.Context, id uint64) (*models.Bet, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Bet
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListBetsByMarket(ctx context.Context, params repository.ListBetsParams) ([]models.Bet, error) {
	if s == nil || s.db == nil || params.MarketID == 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Bet{}).
		Where("market_id = ?", params.MarketID)
	if params.Bettor != nil && strings.TrimSpace(*params.Bettor) != "" {
		query = query.Where("bettor = ?", strings.TrimSpace(*params.Bettor))
	}
	var items []models.Bet
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkBetClaimed flips claimed exactly once; a second call affects zero rows.
func (s *Store) MarkBetClaimed(ctx context.Context, id uint64) (int64, error) {
	if s == nil || s.db == nil || id == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Bet{}).
		Where("id = ?", id).
		Where("claimed = ?", false).
		Update("claimed", true)
	return res.RowsAffected, res.Error
}

// --- helpers -----------------------------------------------------------------

func applyStatusFilter(query *gorm.DB, status *string) *gorm.DB {
	if status != nil && strings.TrimSpace(*status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*status))
	}
	return query
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
