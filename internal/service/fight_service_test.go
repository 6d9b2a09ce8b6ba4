package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coliseum/internal/arena"
	"coliseum/internal/models"
)

func newFightService(repo *fakeRepo) *FightService {
	return &FightService{Repo: repo, PlatformFeePct: 5}
}

func TestCreateFight_CreatesMarketAlongside(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	b := repo.addAgent("Vanguard")
	svc := newFightService(repo)

	fight, market, err := svc.CreateFight(context.Background(), CreateFightInput{
		AgentA: a.ID, AgentB: b.ID, StakeAmount: "100",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if fight.Status != models.FightStatusOpen {
		t.Fatalf("fight status=%s want open", fight.Status)
	}
	if market.FightID != fight.ID {
		t.Fatalf("market fightId=%d want %d", market.FightID, fight.ID)
	}
	if market.Status != models.MarketStatusOpen {
		t.Fatalf("market status=%s want open", market.Status)
	}
	if !market.TotalPoolA.IsZero() || !market.TotalPoolB.IsZero() {
		t.Fatalf("new market pools=%s/%s want 0/0", market.TotalPoolA, market.TotalPoolB)
	}
	if market.AgentA != a.ID || market.AgentB != b.ID {
		t.Fatalf("market sides=%d/%d want %d/%d", market.AgentA, market.AgentB, a.ID, b.ID)
	}
}

func TestCreateFight_SameAgentRejected(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	svc := newFightService(repo)

	_, _, err := svc.CreateFight(context.Background(), CreateFightInput{
		AgentA: a.ID, AgentB: a.ID, StakeAmount: "100",
	})
	if !errors.Is(err, arena.ErrValidation) {
		t.Fatalf("err=%v want ErrValidation", err)
	}
}

func TestCreateFight_UnknownAgent(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	svc := newFightService(repo)

	_, _, err := svc.CreateFight(context.Background(), CreateFightInput{
		AgentA: a.ID, AgentB: 42, StakeAmount: "100",
	})
	if !errors.Is(err, arena.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestCreateFight_InactiveAgentRejected(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	b := repo.addAgent("Vanguard")
	inactive := false
	_ = repo.UpdateAgentProfile(context.Background(), b.ID, &inactive, nil)
	svc := newFightService(repo)

	_, _, err := svc.CreateFight(context.Background(), CreateFightInput{
		AgentA: a.ID, AgentB: b.ID, StakeAmount: "100",
	})
	if !errors.Is(err, arena.ErrInvalidState) {
		t.Fatalf("err=%v want ErrInvalidState", err)
	}
}

func TestCreateFight_BadStake(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	b := repo.addAgent("Vanguard")
	svc := newFightService(repo)

	for _, stake := range []string{"0", "-1", "x"} {
		_, _, err := svc.CreateFight(context.Background(), CreateFightInput{
			AgentA: a.ID, AgentB: b.ID, StakeAmount: stake,
		})
		if !errors.Is(err, arena.ErrValidation) {
			t.Fatalf("stake %q: err=%v want ErrValidation", stake, err)
		}
	}
}

func TestResolveFight_CompletesEverything(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	b := repo.addAgent("Vanguard")
	svc := newFightService(repo)
	ctx := context.Background()

	fight, market, err := svc.CreateFight(ctx, CreateFightInput{AgentA: a.ID, AgentB: b.ID, StakeAmount: "100"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	res, err := svc.ResolveFight(ctx, fight.ID, a.ID)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.Fight.Status != models.FightStatusCompleted || res.Fight.Winner == nil || *res.Fight.Winner != a.ID {
		t.Fatalf("fight=%+v want completed winner %d", res.Fight, a.ID)
	}
	if res.Fight.Reasoning == "" {
		t.Fatalf("expected narrative reasoning on resolved fight")
	}
	if res.Market == nil || res.Market.Status != models.MarketStatusResolved || *res.Market.Winner != a.ID {
		t.Fatalf("market not resolved with fight: %+v", res.Market)
	}
	_ = market

	// 5% of the 200 pool.
	if res.Reward.PlatformFee.Cmp(decimal.NewFromInt(10)) != 0 {
		t.Fatalf("fee=%s want 10", res.Reward.PlatformFee)
	}
	if res.Reward.WinnerReward.Cmp(decimal.NewFromInt(190)) != 0 {
		t.Fatalf("reward=%s want 190", res.Reward.WinnerReward)
	}

	winner, _ := repo.GetAgentByID(ctx, a.ID)
	loser, _ := repo.GetAgentByID(ctx, b.ID)
	if winner.Wins != 1 || winner.TotalBattles != 1 {
		t.Fatalf("winner record=%d/%d want 1 win, 1 battle", winner.Wins, winner.TotalBattles)
	}
	if loser.Losses != 1 || loser.TotalBattles != 1 {
		t.Fatalf("loser record=%d/%d want 1 loss, 1 battle", loser.Losses, loser.TotalBattles)
	}
}

func TestResolveFight_SecondResolveRejected(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	b := repo.addAgent("Vanguard")
	svc := newFightService(repo)
	ctx := context.Background()

	fight, _, err := svc.CreateFight(ctx, CreateFightInput{AgentA: a.ID, AgentB: b.ID, StakeAmount: "10"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if _, err := svc.ResolveFight(ctx, fight.ID, a.ID); err != nil {
		t.Fatalf("first resolve err=%v", err)
	}
	_, err = svc.ResolveFight(ctx, fight.ID, b.ID)
	if !errors.Is(err, arena.ErrInvalidState) {
		t.Fatalf("second resolve err=%v want ErrInvalidState", err)
	}

	got, _ := repo.GetFightByID(ctx, fight.ID)
	if *got.Winner != a.ID {
		t.Fatalf("winner overwritten to %d", *got.Winner)
	}
}

func TestResolveFight_OutsiderWinnerRejected(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	b := repo.addAgent("Vanguard")
	c := repo.addAgent("Bystander")
	svc := newFightService(repo)
	ctx := context.Background()

	fight, _, err := svc.CreateFight(ctx, CreateFightInput{AgentA: a.ID, AgentB: b.ID, StakeAmount: "10"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	_, err = svc.ResolveFight(ctx, fight.ID, c.ID)
	if !errors.Is(err, arena.ErrValidation) {
		t.Fatalf("err=%v want ErrValidation", err)
	}
}

func TestCancelStaleFights(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAgent("Unit-7")
	b := repo.addAgent("Vanguard")
	svc := newFightService(repo)
	ctx := context.Background()

	fresh, _, err := svc.CreateFight(ctx, CreateFightInput{AgentA: a.ID, AgentB: b.ID, StakeAmount: "10"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	stale, _, err := svc.CreateFight(ctx, CreateFightInput{AgentA: a.ID, AgentB: b.ID, StakeAmount: "10"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	repo.mu.Lock()
	repo.fights[stale.ID].CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	repo.mu.Unlock()

	n, err := svc.CancelStaleFights(ctx, 24*time.Hour, 100)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if n != 1 {
		t.Fatalf("cancelled=%d want 1", n)
	}
	got, _ := repo.GetFightByID(ctx, stale.ID)
	if got.Status != models.FightStatusCancelled {
		t.Fatalf("stale fight status=%s want cancelled", got.Status)
	}
	got, _ = repo.GetFightByID(ctx, fresh.ID)
	if got.Status != models.FightStatusOpen {
		t.Fatalf("fresh fight status=%s want open", got.Status)
	}
}
