package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/wfunc/partycards/logger"
	"github.com/wfunc/partycards/network"
	"github.com/wfunc/partycards/session"
	"github.com/wfunc/partycards/state"
)

// websocket 请求体和 REST 一致，另外 gameId/player 为空时使用连接上绑定的值
type gameIDReq struct {
	GameID string `json:"gameId"`
}

type wsErrorBody struct {
	errorBody
	MsgID uint16 `json:"msgId"`
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(r.Context(), network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(ctx context.Context, wsConn network.Connection) {
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(ctx, sess, packet)
		}
	}
}

// handlePacket 处理一个请求并只回复给发起请求的连接
func (s *GameServer) handlePacket(ctx context.Context, sess *session.Session, packet *network.Packet) {
	sess.Touch()

	var (
		reply interface{}
		err   error
	)
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Send(network.MsgTypeHeartbeat, nil)
		return
	case network.MsgTypeStartGame:
		reply, err = s.wsStartGame(ctx, sess, packet.Data)
	case network.MsgTypeJoinGame:
		reply, err = s.wsJoinGame(ctx, sess, packet.Data)
	case network.MsgTypePlayCard:
		reply, err = s.wsPlayCard(ctx, sess, packet.Data)
	case network.MsgTypeJudge:
		reply, err = s.wsJudge(ctx, sess, packet.Data)
	case network.MsgTypeGameState:
		reply, err = s.wsGameState(ctx, sess, packet.Data)
	case network.MsgTypeScores:
		reply, err = s.wsScores(ctx, sess, packet.Data)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		err = fmt.Errorf("%w: unknown message type %d", state.ErrInvalidInput, packet.MsgID)
	}

	if err != nil {
		s.sendError(sess, packet.MsgID, err)
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.sendError(sess, packet.MsgID, err)
		return
	}
	if err := sess.Send(packet.MsgID, data); err != nil {
		logger.Log.Warnf("Send to session %s failed: %v", sess.GetID(), err)
	}
}

func (s *GameServer) sendError(sess *session.Session, msgID uint16, err error) {
	data, _ := json.Marshal(wsErrorBody{errorBody: errorBodyOf(err), MsgID: msgID})
	if err := sess.Send(network.MsgTypeError, data); err != nil {
		logger.Log.Warnf("Send to session %s failed: %v", sess.GetID(), err)
	}
}

func decodePacket(data []byte, dst interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: malformed message body: %v", state.ErrInvalidInput, err)
	}
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (s *GameServer) wsStartGame(ctx context.Context, sess *session.Session, data []byte) (interface{}, error) {
	var req startGameReq
	if err := decodePacket(data, &req); err != nil {
		return nil, err
	}
	g, err := s.service.StartGame(ctx, req.Players)
	if err != nil {
		return nil, err
	}
	// 开局的连接视为第一个玩家
	sess.Bind(g.GameID, g.Players[0].Player)
	return newGameView(g), nil
}

func (s *GameServer) wsJoinGame(ctx context.Context, sess *session.Session, data []byte) (interface{}, error) {
	var req addPlayerReq
	if err := decodePacket(data, &req); err != nil {
		return nil, err
	}
	gameID := orDefault(req.GameID, sess.GameID())
	g, err := s.service.AddPlayer(ctx, gameID, req.Player)
	if err != nil {
		return nil, err
	}
	sess.Bind(gameID, req.Player)
	return newGameView(g), nil
}

func (s *GameServer) wsPlayCard(ctx context.Context, sess *session.Session, data []byte) (interface{}, error) {
	var req playCardReq
	if err := decodePacket(data, &req); err != nil {
		return nil, err
	}
	g, err := s.service.PlayCard(ctx, orDefault(req.GameID, sess.GameID()), orDefault(req.Player, sess.PlayerID()), req.Card)
	if err != nil {
		return nil, err
	}
	return newGameView(g), nil
}

func (s *GameServer) wsJudge(ctx context.Context, sess *session.Session, data []byte) (interface{}, error) {
	var req judgeRoundReq
	if err := decodePacket(data, &req); err != nil {
		return nil, err
	}
	g, err := s.service.JudgeRound(ctx, orDefault(req.GameID, sess.GameID()), req.WinningCard)
	if err != nil {
		return nil, err
	}
	return newGameView(g), nil
}

func (s *GameServer) wsGameState(ctx context.Context, sess *session.Session, data []byte) (interface{}, error) {
	var req gameIDReq
	if err := decodePacket(data, &req); err != nil {
		return nil, err
	}
	g, err := s.service.GetState(ctx, orDefault(req.GameID, sess.GameID()))
	if err != nil {
		return nil, err
	}
	return newGameView(g), nil
}

func (s *GameServer) wsScores(ctx context.Context, sess *session.Session, data []byte) (interface{}, error) {
	var req gameIDReq
	if err := decodePacket(data, &req); err != nil {
		return nil, err
	}
	g, err := s.service.GetState(ctx, orDefault(req.GameID, sess.GameID()))
	if err != nil {
		return nil, err
	}
	return scoresView{GameID: g.GameID, Phase: g.Phase(), Scores: g.Scores()}, nil
}
