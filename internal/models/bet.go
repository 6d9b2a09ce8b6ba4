package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bet struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	MarketID uint64 `gorm:"not null;index"`
	Bettor   string `gorm:"type:varchar(42);not null;index"`
	AgentID  uint64 `gorm:"not null"`

	Amount  decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Claimed bool            `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Bet) TableName() string {
	return "bets"
}
