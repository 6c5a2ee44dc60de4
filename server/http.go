package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wfunc/partycards/models"
	"github.com/wfunc/partycards/services"
	"github.com/wfunc/partycards/state"
)

// 请求体里客户端回传的 deck/players/roundPool 等字段会被忽略，
// 服务端只按 gameId 读取自己保存的快照。
type startGameReq struct {
	Players []string `json:"players"`
}

type addPlayerReq struct {
	GameID string `json:"gameId"`
	Player string `json:"player"`
}

type playCardReq struct {
	GameID string      `json:"gameId"`
	Player string      `json:"player"`
	Card   models.Card `json:"card"`
}

type judgeRoundReq struct {
	GameID      string      `json:"gameId"`
	WinningCard models.Card `json:"winningCard"`
}

// gameView 是返回给客户端的快照，多带一个派生的 phase
type gameView struct {
	*models.GameSession
	Phase models.Phase `json:"phase"`
}

func newGameView(g *models.GameSession) gameView {
	return gameView{GameSession: g, Phase: g.Phase()}
}

type scoresView struct {
	GameID string         `json:"gameId"`
	Phase  models.Phase   `json:"phase"`
	Scores []models.Score `json:"scores"`
}

type errorBody struct {
	Error string        `json:"error"`
	Code  services.Code `json:"code"`
}

func (s *GameServer) handleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from the party cards server"})
}

func (s *GameServer) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameReq
	if !decodeBody(w, r, &req) {
		return
	}
	g, err := s.service.StartGame(r.Context(), req.Players)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

func (s *GameServer) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req addPlayerReq
	if !decodeBody(w, r, &req) {
		return
	}
	g, err := s.service.AddPlayer(r.Context(), req.GameID, req.Player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

func (s *GameServer) handlePlayCard(w http.ResponseWriter, r *http.Request) {
	var req playCardReq
	if !decodeBody(w, r, &req) {
		return
	}
	g, err := s.service.PlayCard(r.Context(), req.GameID, req.Player, req.Card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

func (s *GameServer) handleJudgeRound(w http.ResponseWriter, r *http.Request) {
	var req judgeRoundReq
	if !decodeBody(w, r, &req) {
		return
	}
	g, err := s.service.JudgeRound(r.Context(), req.GameID, req.WinningCard)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

func (s *GameServer) handleGetState(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.GetState(r.Context(), chi.URLParam(r, "gameId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

func (s *GameServer) handleGetScores(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.GetState(r.Context(), chi.URLParam(r, "gameId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresView{GameID: g.GameID, Phase: g.Phase(), Scores: g.Scores()})
}

// decodeBody 解析 JSON 请求体，失败时直接写 400
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body: %v", state.ErrInvalidInput, err))
		return false
	}
	return true
}

// statusOf: NotFound → 404，校验错误 → 400，其余 → 500
func statusOf(err error) int {
	switch {
	case services.CodeOf(err) == services.CodeNotFound:
		return http.StatusNotFound
	case services.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorBodyOf(err error) errorBody {
	code := services.CodeOf(err)
	msg := err.Error()
	if code == services.CodeInternal {
		msg = "internal server error"
	}
	return errorBody{Error: msg, Code: code}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), errorBodyOf(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
