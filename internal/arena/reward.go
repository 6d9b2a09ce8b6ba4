package arena

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RewardSplit is the division of a fight's combined stake between the winning
// agent's owner and the platform.
type RewardSplit struct {
	WinnerReward decimal.Decimal
	PlatformFee  decimal.Decimal
}

// SplitStakeReward splits the two-sided stake pool (stake from each fighter)
// by the platform fee percentage. This is the fight-stake reward, separate
// from the betting pools; disbursement is the chain collaborator's job.
func SplitStakeReward(stake decimal.Decimal, feePct int64) RewardSplit {
	total := stake.Mul(decimal.NewFromInt(2))
	fee := total.Mul(decimal.NewFromInt(feePct)).Div(hundred)
	return RewardSplit{
		WinnerReward: total.Sub(fee),
		PlatformFee:  fee,
	}
}
