// Package main provides the game server binary: the client TCP listener,
// the game engine, the world scheduler, and the operator console, all over
// one PostgreSQL-backed world.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/admin"
	"github.com/nickeddy/uamud/internal/config"
	"github.com/nickeddy/uamud/internal/frontend/tcp"
	"github.com/nickeddy/uamud/internal/game/broadcast"
	"github.com/nickeddy/uamud/internal/game/dice"
	"github.com/nickeddy/uamud/internal/game/mob"
	"github.com/nickeddy/uamud/internal/game/session"
	"github.com/nickeddy/uamud/internal/gameserver"
	"github.com/nickeddy/uamud/internal/observability"
	"github.com/nickeddy/uamud/internal/scripting"
	"github.com/nickeddy/uamud/internal/server"
	"github.com/nickeddy/uamud/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting uamud game server",
		zap.String("listen", cfg.Listen.Addr()),
	)

	ctx := context.Background()
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	store := postgres.NewStore(pool)

	dialogue, err := scripting.LoadDialogueDir(cfg.Game.DialogueDir, logger)
	if err != nil {
		logger.Fatal("loading dialogue scripts", zap.Error(err))
	}

	sessions := session.NewRegistry()
	bus := broadcast.NewBus(sessions, logger)
	mobs := mob.NewManager()

	lifecycle := server.NewLifecycle(logger)
	engine := gameserver.New(
		cfg.Game, logger, store, sessions, bus, mobs,
		dialogue, dice.NewSource(), lifecycle.Trigger,
	)
	scheduler := gameserver.NewScheduler(engine, logger)
	acceptor := tcp.NewAcceptor(cfg.Listen, engine, sessions, store, logger)
	console := admin.NewConsole(engine, logger, os.Stdin, os.Stdout)

	// Stop order is the reverse of add order: console and listener go down
	// before the scheduler, the database pool last.
	lifecycle.Add("database", &server.FuncService{
		StartFn: func() error { return nil },
		StopFn:  pool.Close,
	})
	lifecycle.Add("scheduler", scheduler)
	lifecycle.Add("listener", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})
	lifecycle.Add("console", console)

	logger.Info("server wired", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}
