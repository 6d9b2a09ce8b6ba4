package models

import (
	"time"
)

type Agent struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(32);not null;index"`
	Owner       string `gorm:"type:varchar(42);not null;index"`
	MetadataURI string `gorm:"type:text"`

	Wins         int64 `gorm:"not null;default:0"`
	Losses       int64 `gorm:"not null;default:0"`
	TotalBattles int64 `gorm:"not null;default:0"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Agent) TableName() string {
	return "agents"
}
