package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/partycards/catalog"
	"github.com/wfunc/partycards/config"
	"github.com/wfunc/partycards/deck"
	"github.com/wfunc/partycards/logger"
	"github.com/wfunc/partycards/monitor"
	"github.com/wfunc/partycards/persistence"
	"github.com/wfunc/partycards/rpc"
	"github.com/wfunc/partycards/server"
	"github.com/wfunc/partycards/services"
	"github.com/wfunc/partycards/state"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init("info", false)
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Development)
	defer logger.Sync()

	cards, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Log.Fatalf("Failed to load card catalog: %v", err)
	}
	white, black := catalog.Stats(cards)
	logger.Log.Infof("Loaded %d packs: %d response cards, %d prompt cards", len(cards), white, black)

	seed := cfg.Game.Seed
	if seed == 0 {
		if seed, err = deck.NewSeed(); err != nil {
			logger.Log.Fatalf("Failed to seed dealer: %v", err)
		}
	}
	machine := state.NewMachine(deck.NewDealer(rand.NewSource(seed)))

	// Initialize storage
	pg := cfg.Database.Postgres
	store, err := persistence.Open(cfg.Database.Driver, persistence.Options{
		Host:     pg.Host,
		Port:     pg.Port,
		User:     pg.User,
		Password: pg.Password,
		DBName:   pg.DBName,
		SSLMode:  pg.SSLMode,
	})
	if err != nil {
		logger.Log.Fatalf("Failed to open %s store: %v", cfg.Database.Driver, err)
	}
	defer store.Close()
	logger.Log.Infof("Using %s session store", cfg.Database.Driver)

	mon := monitor.NewMonitor("partycards", nil)
	metricsServer := mon.StartServer(cfg.Server.MetricsAddress)
	logger.Log.Infof("Metrics listening on %s", cfg.Server.MetricsAddress)

	gameService := services.NewGameService(store, machine, cards, mon)

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress, gameService)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	go rpcServer.Start()

	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, gameService)
	errCh := make(chan error, 1)
	go func() {
		errCh <- gameServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Log.Infof("Received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			logger.Log.Errorf("Game server stopped: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rpcServer.Stop()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Log.Warnf("Game server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Log.Warnf("Metrics server shutdown: %v", err)
	}
}
