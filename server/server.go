package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/wfunc/partycards/logger"
	"github.com/wfunc/partycards/services"
	"github.com/wfunc/partycards/session"
	"github.com/wfunc/partycards/timer"
)

const (
	// 超过这个时间没有任何消息（包括心跳）的 websocket 连接会被关闭
	sessionIdleTimeout = 5 * time.Minute
	idleSweepInterval  = time.Minute
)

// GameServer 提供 REST 接口和 websocket 接口，两者都只是 GameService 的薄封装
type GameServer struct {
	addr           string
	router         *chi.Mux
	httpServer     *http.Server
	upgrader       websocket.Upgrader
	service        *services.GameService
	sessionManager *session.Manager
	timers         *timer.Scheduler
	shutdownChan   chan struct{}
}

func NewGameServer(addr string, service *services.GameService) *GameServer {
	s := &GameServer{
		addr:           addr,
		router:         chi.NewRouter(),
		service:        service,
		sessionManager: session.NewManager(),
		timers:         timer.NewScheduler(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)
	s.router.Use(requestLogger)

	// websocket 连接是长连接，不能套 Timeout
	s.router.Get("/ws", s.handleWebSocket)

	s.router.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Get("/api/hello", s.handleHello)

		r.Route("/api/game", func(r chi.Router) {
			r.Post("/start-game", s.handleStartGame)
			r.Post("/add-player", s.handleAddPlayer)
			r.Post("/play-card", s.handlePlayCard)
			r.Post("/judge-round", s.handleJudgeRound)
			r.Get("/state/{gameId}", s.handleGetState)
			r.Get("/state/{gameId}/scores", s.handleGetScores)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found: " + r.URL.Path, Code: services.CodeNotFound})
		})
	})

	s.timers.Every(idleSweepInterval, s.closeIdleSessions)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router exposes the router for tests.
func (s *GameServer) Router() chi.Router { return s.router }

func (s *GameServer) Start() error {
	logger.Log.Infof("Game server listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 关闭所有 websocket 连接，然后优雅停止 HTTP 服务
func (s *GameServer) Shutdown(ctx context.Context) error {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
	s.timers.Stop()
	s.sessionManager.CloseAll()
	return s.httpServer.Shutdown(ctx)
}

func (s *GameServer) closeIdleSessions() {
	if n := s.sessionManager.CloseIdle(sessionIdleTimeout); n > 0 {
		logger.Log.Infof("Closed %d idle connections", n)
	}
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Log.Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestId", chimw.GetReqID(r.Context()),
		)
	})
}
