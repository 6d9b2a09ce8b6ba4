package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MarketStatusOpen     = "open"
	MarketStatusResolved = "resolved"
)

// Market is the betting instrument for a single fight. The two pool columns
// are mutated only through Repository.AddToPool; resolution never touches
// them, they are the final stake distribution used for settlement.
type Market struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	FightID uint64 `gorm:"not null;uniqueIndex"`
	AgentA  uint64 `gorm:"not null"`
	AgentB  uint64 `gorm:"not null"`

	Status string  `gorm:"type:varchar(20);not null;default:'open';index"`
	Winner *uint64 `gorm:"default:null"`

	TotalPoolA decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	TotalPoolB decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt  time.Time  `gorm:"type:timestamptz;autoCreateTime;index"`
	ResolvedAt *time.Time `gorm:"type:timestamptz"`
}

func (Market) TableName() string {
	return "markets"
}

// IsSide reports whether agentID is one of the market's two betting sides.
func (m *Market) IsSide(agentID uint64) bool {
	return agentID == m.AgentA || agentID == m.AgentB
}
