package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	FightStatusOpen       = "open"
	FightStatusInProgress = "in_progress"
	FightStatusCompleted  = "completed"
	FightStatusCancelled  = "cancelled"
)

type Fight struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	AgentA uint64 `gorm:"not null;index"`
	AgentB uint64 `gorm:"not null;index"`

	StakeAmount decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'open';index"`
	Winner      *uint64         `gorm:"default:null"`

	// Narrative rounds from the battle narrator, stored as delivered.
	BattleLog datatypes.JSON `gorm:"type:jsonb"`
	Reasoning string         `gorm:"type:text"`

	CreatedAt  time.Time  `gorm:"type:timestamptz;autoCreateTime;index"`
	ResolvedAt *time.Time `gorm:"type:timestamptz"`
}

func (Fight) TableName() string {
	return "fights"
}
