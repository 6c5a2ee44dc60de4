package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wfunc/partycards/deck"
	"github.com/wfunc/partycards/models"
	"github.com/wfunc/partycards/monitor"
	"github.com/wfunc/partycards/persistence"
	"github.com/wfunc/partycards/state"
)

func testCatalog() models.Catalog {
	pack := models.Pack{Name: "base"}
	for i := 0; i < 60; i++ {
		pack.White = append(pack.White, models.Card{Text: fmt.Sprintf("white %d", i), Pack: "base"})
	}
	for i := 0; i < 4; i++ {
		pack.Black = append(pack.Black, models.Card{Text: fmt.Sprintf("black %d", i), Pack: "base"})
	}
	return models.Catalog{pack}
}

func newTestService(store persistence.Store) (*GameService, *monitor.Monitor) {
	mon := monitor.NewMonitor("test", prometheus.NewRegistry())
	machine := state.NewMachine(deck.NewDealer(rand.NewSource(1)))
	return NewGameService(store, machine, testCatalog(), mon), mon
}

// failingStore fails every Save after the first one.
type failingStore struct {
	*persistence.MemoryStore
	saves int
}

func (f *failingStore) Save(ctx context.Context, g *models.GameSession) error {
	f.saves++
	if f.saves > 1 {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, g)
}

func TestGameService_PlaysARound(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	svc, mon := newTestService(store)

	g, err := svc.StartGame(ctx, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if _, err := svc.AddPlayer(ctx, g.GameID, "carol"); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}

	for _, p := range []string{"alice", "bob", "carol"} {
		cur, err := svc.GetState(ctx, g.GameID)
		if err != nil {
			t.Fatalf("GetState failed: %v", err)
		}
		entry, _ := cur.Player(p)
		if _, err := svc.PlayCard(ctx, g.GameID, p, entry.Hand[0]); err != nil {
			t.Fatalf("PlayCard for %s failed: %v", p, err)
		}
	}

	cur, _ := svc.GetState(ctx, g.GameID)
	winning := cur.RoundPool[1]
	judged, err := svc.JudgeRound(ctx, g.GameID, winning.Card)
	if err != nil {
		t.Fatalf("JudgeRound failed: %v", err)
	}

	scores, err := svc.GetScores(ctx, g.GameID)
	if err != nil {
		t.Fatalf("GetScores failed: %v", err)
	}
	for _, s := range scores {
		want := 0
		if s.Player == winning.Player {
			want = 1
		}
		if s.Points != want {
			t.Errorf("Expected %s to have %d points, got %d", s.Player, want, s.Points)
		}
	}

	stored, _ := store.Load(ctx, g.GameID)
	if stored.CurrentPrompt == nil || *stored.CurrentPrompt != *judged.CurrentPrompt {
		t.Error("Judged snapshot should be persisted")
	}

	metrics := mon.Metrics()
	if got := testutil.ToFloat64(metrics.GamesCreated); got != 1 {
		t.Errorf("Expected 1 game created, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.CardsSubmitted); got != 3 {
		t.Errorf("Expected 3 cards submitted, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.RoundsJudged); got != 1 {
		t.Errorf("Expected 1 round judged, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.InFlight); got != 0 {
		t.Errorf("Expected nothing in flight, got %v", got)
	}
}

func TestGameService_NotFound(t *testing.T) {
	svc, mon := newTestService(persistence.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.GetState(ctx, "nonexistent")
	if !errors.Is(err, persistence.ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound, but got: %v", err)
	}
	if CodeOf(err) != CodeNotFound {
		t.Errorf("Expected code NOT_FOUND, got %s", CodeOf(err))
	}
	if _, err := svc.PlayCard(ctx, "nonexistent", "alice", models.Card{Text: "x"}); CodeOf(err) != CodeNotFound {
		t.Errorf("Expected NOT_FOUND for play on unknown game, got %v", err)
	}
	if got := testutil.ToFloat64(mon.Metrics().OperationErrors.WithLabelValues("query", "NOT_FOUND")); got != 1 {
		t.Errorf("Expected 1 query NOT_FOUND error, got %v", got)
	}
}

func TestGameService_MissingGameID(t *testing.T) {
	svc, _ := newTestService(persistence.NewMemoryStore())
	ctx := context.Background()

	if _, err := svc.GetState(ctx, ""); CodeOf(err) != CodeInvalidInput {
		t.Errorf("Expected INVALID_INPUT, got %v", err)
	}
	if _, err := svc.AddPlayer(ctx, "", "bob"); CodeOf(err) != CodeInvalidInput {
		t.Errorf("Expected INVALID_INPUT, got %v", err)
	}
}

func TestGameService_FailedTransitionIsNotSaved(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	svc, _ := newTestService(store)

	g, err := svc.StartGame(ctx, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	_, err = svc.JudgeRound(ctx, g.GameID, g.Players[0].Hand[0])
	if CodeOf(err) != CodeRoundIncomplete {
		t.Fatalf("Expected ROUND_INCOMPLETE, got %v", err)
	}

	stored, _ := store.Load(ctx, g.GameID)
	if stored.CurrentPrompt == nil || *stored.CurrentPrompt != *g.CurrentPrompt || len(stored.PromptDeck) != len(g.PromptDeck) {
		t.Error("A rejected judge must not change the stored session")
	}
}

func TestGameService_StoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: persistence.NewMemoryStore()}
	svc, _ := newTestService(store)

	g, err := svc.StartGame(ctx, []string{"alice"})
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	_, err = svc.PlayCard(ctx, g.GameID, "alice", g.Players[0].Hand[0])
	if err == nil || CodeOf(err) != CodeInternal {
		t.Fatalf("Expected an internal error, got %v", err)
	}

	stored, _ := store.Load(ctx, g.GameID)
	if len(stored.RoundPool) != 0 || len(stored.Players[0].Hand) != state.HandSize {
		t.Error("Session should be unchanged when saving fails")
	}
}

func TestGameService_ConcurrentJoins(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(persistence.NewMemoryStore())

	g, err := svc.StartGame(ctx, []string{"host"})
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.AddPlayer(ctx, g.GameID, fmt.Sprintf("p%d", i)); err != nil {
				t.Errorf("AddPlayer p%d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	final, _ := svc.GetState(ctx, g.GameID)
	if len(final.Players) != 7 {
		t.Fatalf("Expected 7 players after concurrent joins, got %d", len(final.Players))
	}
	if n := len(final.ResponseCards()); n != 60 {
		t.Errorf("Expected 60 response cards conserved, got %d", n)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Code
	}{
		{nil, ""},
		{fmt.Errorf("wrap: %w", state.ErrCardNotInHand), CodeCardNotInHand},
		{fmt.Errorf("deal: %w", deck.ErrInsufficientCards), CodeInsufficientCards},
		{deck.ErrEmptyDeck, CodeEmptyDeck},
		{errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Errorf("CodeOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
	if IsValidation(persistence.ErrRecordNotFound) || !IsValidation(state.ErrRoundIncomplete) {
		t.Error("IsValidation classified errors wrongly")
	}
}
