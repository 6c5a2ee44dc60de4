package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/partycards/logger"
	"github.com/wfunc/partycards/models"
	"github.com/wfunc/partycards/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the game service as "Game".
func NewServer(addr string, svc *services.GameService) (*Server, error) {
	server := rpc.NewServer()
	if err := server.RegisterName("Game", NewGameService(svc)); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: listener, rpc: server}, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.listener.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

const callTimeout = 10 * time.Second

// GameService exposes the game operations over net/rpc. Errors cross the
// wire as strings, so the machine-readable code is returned in the reply too.
type GameService struct {
	svc *services.GameService
}

func NewGameService(svc *services.GameService) *GameService {
	return &GameService{svc: svc}
}

type StartGameArgs struct {
	Players []string
}

type AddPlayerArgs struct {
	GameID string
	Player string
}

type PlayCardArgs struct {
	GameID string
	Player string
	Card   models.Card
}

type JudgeRoundArgs struct {
	GameID      string
	WinningCard models.Card
}

type GetStateArgs struct {
	GameID string
}

type GameReply struct {
	Game  *models.GameSession
	Phase models.Phase
	Code  services.Code
}

func (gs *GameService) StartGame(args *StartGameArgs, reply *GameReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.GameSession, error) {
		return gs.svc.StartGame(ctx, args.Players)
	})
}

func (gs *GameService) AddPlayer(args *AddPlayerArgs, reply *GameReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.GameSession, error) {
		return gs.svc.AddPlayer(ctx, args.GameID, args.Player)
	})
}

func (gs *GameService) PlayCard(args *PlayCardArgs, reply *GameReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.GameSession, error) {
		return gs.svc.PlayCard(ctx, args.GameID, args.Player, args.Card)
	})
}

func (gs *GameService) JudgeRound(args *JudgeRoundArgs, reply *GameReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.GameSession, error) {
		return gs.svc.JudgeRound(ctx, args.GameID, args.WinningCard)
	})
}

func (gs *GameService) GetState(args *GetStateArgs, reply *GameReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.GameSession, error) {
		return gs.svc.GetState(ctx, args.GameID)
	})
}

// call 出错时 reply 只带错误码。net/rpc 在方法返回错误时不会发送 reply，
// 所以错误码同时拼进错误信息的前缀。
func (gs *GameService) call(reply *GameReply, fn func(ctx context.Context) (*models.GameSession, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	g, err := fn(ctx)
	if err != nil {
		reply.Code = services.CodeOf(err)
		return errors.New(string(reply.Code) + ": " + err.Error())
	}
	reply.Game = g
	reply.Phase = g.Phase()
	return nil
}
