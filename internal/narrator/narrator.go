// Package narrator is the boundary to the battle narrative generator. The
// engine consumes its output as an opaque result; the generation itself (LLM
// or otherwise) lives outside this service.
package narrator

import (
	"context"
	"fmt"

	"coliseum/internal/models"
)

type Round struct {
	Round     int    `json:"round"`
	Attacker  string `json:"attacker"`
	Action    string `json:"action"`
	Narrative string `json:"narrative"`
}

type Result struct {
	Rounds    []Round `json:"rounds"`
	Reasoning string  `json:"reasoning"`
}

type Narrator interface {
	Narrate(ctx context.Context, winner, loser *models.Agent) (Result, error)
}

// Static produces a record-based summary when no external narrator is wired.
type Static struct{}

func (Static) Narrate(_ context.Context, winner, loser *models.Agent) (Result, error) {
	winRate := 0.0
	if winner.TotalBattles > 0 {
		winRate = float64(winner.Wins) / float64(winner.TotalBattles)
	}
	experienceDiff := winner.TotalBattles - loser.TotalBattles

	reasoning := fmt.Sprintf(
		"Battle Analysis:\n- Winner: %s (ID: %d)\n- Experience difference: %+d battles\n- Winner's win rate: %.1f%%",
		winner.Name, winner.ID, experienceDiff, winRate*100,
	)
	return Result{Reasoning: reasoning}, nil
}
