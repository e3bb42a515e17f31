// Package main provides a CLI tool for granting and revoking admin rights.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nickeddy/uamud/internal/config"
	"github.com/nickeddy/uamud/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	username := flag.String("username", "", "target account username (required)")
	admin := flag.Bool("admin", true, "grant (true) or revoke (false) admin rights")
	flag.Parse()

	if *username == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	if err := store.SetAdmin(ctx, *username, *admin); err != nil {
		log.Fatalf("setting admin flag for %q: %v", *username, err)
	}

	fmt.Fprintf(os.Stdout, "set admin=%v for %s\n", *admin, *username)
}
