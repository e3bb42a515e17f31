// Package main provides the world content importer: it validates a directory
// of YAML room/item/NPC definitions and loads them into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nickeddy/uamud/internal/config"
	"github.com/nickeddy/uamud/internal/game/world"
	"github.com/nickeddy/uamud/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "content", "path to content YAML directory")
	dryRun := flag.Bool("dry-run", false, "validate the content without writing to the database")
	flag.Parse()

	start := time.Now()
	content, err := world.LoadContentFromDir(*contentDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("validated %d rooms, %d items, %d npcs\n",
		len(content.Rooms), len(content.Items), len(content.NPCs))

	if *dryRun {
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	if err := store.Seed(ctx, content); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("import complete in %s\n", time.Since(start).Round(time.Millisecond))
}
