// Command simulate runs a CPU-only tournament and prints the standings.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thraizz/uno-server-go/internal/config"
	"github.com/thraizz/uno-server-go/internal/repository"
	"github.com/thraizz/uno-server-go/internal/tournament"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	players    = flag.Int("players", 8, "number of CPU players")
	rounds     = flag.Int("rounds", 10, "rounds to play")
	tableSize  = flag.Int("table", 4, "players per table (2-4)")
	seed       = flag.Uint64("seed", 1, "random seed")
	store      = flag.Bool("store", false, "save every table result to the configured database")
	verbose    = flag.Bool("v", false, "log every table")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level := zapcore.WarnLevel
	if *verbose {
		level = zapcore.DebugLevel
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := repository.ResultStore(repository.NopStore{})
	if *store {
		results, err = repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to open result store", zap.Error(err))
		}
		defer results.Close()
	}

	t := tournament.NewTournament("simulation", tournament.Config{
		Rounds:    *rounds,
		TableSize: *tableSize,
		HandSize:  cfg.Game.HandSize,
		Seed:      *seed,
	}, results, logger)
	for i := 1; i <= *players; i++ {
		if err := t.AddPlayer(fmt.Sprintf("CPU-%d", i)); err != nil {
			logger.Fatal("failed to add player", zap.Error(err))
		}
	}

	if err := t.Run(ctx); err != nil {
		logger.Error("tournament stopped", zap.Error(err))
	}

	snap := t.Snapshot()
	draws := 0
	for _, r := range snap.Rounds {
		for _, tb := range r.Tables {
			if tb.Winner == "" {
				draws++
			}
		}
	}
	fmt.Printf("%s: %d round(s), %d drawn table(s)\n\n", snap.State, len(snap.Rounds), draws)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPLAYER\tPTS\tW\tL\tD\tBYE")
	for i, s := range snap.Standings {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%d\n", i+1, s.Name, s.Points, s.Wins, s.Losses, s.Draws, s.Byes)
	}
	w.Flush()
}
