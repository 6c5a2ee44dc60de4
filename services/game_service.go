// services/game_service.go
package services

import (
	"context"
	"time"

	"github.com/wfunc/partycards/logger"
	"github.com/wfunc/partycards/models"
	"github.com/wfunc/partycards/monitor"
	"github.com/wfunc/partycards/persistence"
	"github.com/wfunc/partycards/room"
	"github.com/wfunc/partycards/state"
)

// GameService 对外提供游戏操作：读取快照 → 状态机转换 → 保存快照。
// 同一 gameId 的操作通过 room.Manager 串行化，客户端传来的状态一律不信任。
type GameService struct {
	store   persistence.Store
	machine *state.Machine
	catalog models.Catalog
	rooms   *room.Manager
	monitor *monitor.Monitor
}

func NewGameService(store persistence.Store, machine *state.Machine, catalog models.Catalog, mon *monitor.Monitor) *GameService {
	return &GameService{
		store:   store,
		machine: machine,
		catalog: catalog,
		rooms:   room.NewRoomManager(),
		monitor: mon,
	}
}

// StartGame 创建新游戏并保存
func (s *GameService) StartGame(ctx context.Context, players []string) (g *models.GameSession, err error) {
	defer s.observe("start", time.Now(), &err)

	g, err = s.machine.Create(players, s.catalog)
	if err != nil {
		return nil, err
	}
	if err = s.store.Save(ctx, g); err != nil {
		return nil, err
	}

	s.monitor.IncGamesCreated()
	logger.Log.Infow("game started", "gameId", g.GameID, "players", len(g.Players), "deck", len(g.ResponseDeck), "prompts", len(g.PromptDeck))
	return g, nil
}

// AddPlayer 玩家加入已有游戏
func (s *GameService) AddPlayer(ctx context.Context, gameID, player string) (g *models.GameSession, err error) {
	defer s.observe("join", time.Now(), &err)

	g, err = s.transition(ctx, gameID, func(cur *models.GameSession) (*models.GameSession, error) {
		return s.machine.AddPlayer(cur, player)
	})
	if err != nil {
		return nil, err
	}

	s.monitor.IncPlayersJoined()
	logger.Log.Infow("player joined", "gameId", gameID, "player", player, "players", len(g.Players))
	return g, nil
}

// PlayCard 玩家出牌
func (s *GameService) PlayCard(ctx context.Context, gameID, player string, card models.Card) (g *models.GameSession, err error) {
	defer s.observe("submit", time.Now(), &err)

	g, err = s.transition(ctx, gameID, func(cur *models.GameSession) (*models.GameSession, error) {
		return s.machine.SubmitCard(cur, player, card)
	})
	if err != nil {
		return nil, err
	}

	s.monitor.IncCardsSubmitted()
	logger.Log.Infow("card played", "gameId", gameID, "player", player, "pool", len(g.RoundPool), "phase", g.Phase())
	return g, nil
}

// JudgeRound 评判本轮
func (s *GameService) JudgeRound(ctx context.Context, gameID string, winningCard models.Card) (g *models.GameSession, err error) {
	defer s.observe("judge", time.Now(), &err)

	g, err = s.transition(ctx, gameID, func(cur *models.GameSession) (*models.GameSession, error) {
		return s.machine.JudgeRound(cur, winningCard)
	})
	if err != nil {
		return nil, err
	}

	s.monitor.IncRoundsJudged()
	if g.Phase() == models.PhaseExhausted {
		s.monitor.IncGamesExhausted()
		logger.Log.Infow("prompt deck exhausted", "gameId", gameID)
	}
	logger.Log.Infow("round judged", "gameId", gameID, "winningCard", winningCard.Text, "promptsLeft", len(g.PromptDeck))
	return g, nil
}

// GetState 读取游戏快照，不做修改
func (s *GameService) GetState(ctx context.Context, gameID string) (g *models.GameSession, err error) {
	defer s.observe("query", time.Now(), &err)

	if gameID == "" {
		return nil, missingGameID()
	}
	return s.store.Load(ctx, gameID)
}

// GetScores 返回每个玩家的得分（赢牌堆大小）
func (s *GameService) GetScores(ctx context.Context, gameID string) ([]models.Score, error) {
	g, err := s.GetState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return g.Scores(), nil
}

// transition runs one read-modify-write under the game's lock. Nothing is
// saved when apply fails.
func (s *GameService) transition(ctx context.Context, gameID string, apply func(*models.GameSession) (*models.GameSession, error)) (*models.GameSession, error) {
	if gameID == "" {
		return nil, missingGameID()
	}

	s.monitor.IncInFlight()
	defer s.monitor.DecInFlight()

	var next *models.GameSession
	err := s.rooms.Do(gameID, func() error {
		cur, err := s.store.Load(ctx, gameID)
		if err != nil {
			return err
		}
		if next, err = apply(cur); err != nil {
			return err
		}
		return s.store.Save(ctx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *GameService) observe(op string, start time.Time, errp *error) {
	err := *errp
	s.monitor.ObserveOperation(op, time.Since(start), string(CodeOf(err)))
	switch {
	case err == nil:
	case IsValidation(err):
		logger.Log.Debugw("operation rejected", "op", op, "error", err)
	case CodeOf(err) == CodeNotFound:
		logger.Log.Debugw("game not found", "op", op, "error", err)
	default:
		logger.Log.Errorw("operation failed", "op", op, "error", err)
	}
}
