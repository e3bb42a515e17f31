// Package main provides the all-in-one development server: the full game
// engine over an in-memory store seeded from a content directory, no
// database required.
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
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/gameserver"
	"github.com/nickeddy/uamud/internal/observability"
	"github.com/nickeddy/uamud/internal/scripting"
	"github.com/nickeddy/uamud/internal/server"
	"github.com/nickeddy/uamud/internal/storage/memory"
)

func main() {
	start := time.Now()

	contentDir := flag.String("content", "content", "path to content YAML directory")
	flag.Parse()

	cfg := config.Default()
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "debug", Format: "console"})
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting uamud dev server",
		zap.String("listen", cfg.Listen.Addr()),
		zap.String("content", *contentDir),
	)

	content, err := world.LoadContentFromDir(*contentDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	ctx := context.Background()
	store := memory.NewStore()
	if err := store.Seed(ctx, content); err != nil {
		logger.Fatal("seeding content", zap.Error(err))
	}
	logger.Info("world seeded",
		zap.Int("rooms", len(content.Rooms)),
		zap.Int("items", len(content.Items)),
		zap.Int("npcs", len(content.NPCs)),
	)

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

	lifecycle.Add("scheduler", scheduler)
	lifecycle.Add("listener", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})
	lifecycle.Add("console", console)

	logger.Info("dev server wired", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}
