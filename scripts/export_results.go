package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/uno-server-go/internal/config"
	"github.com/thraizz/uno-server-go/internal/repository"
)

// Usage: go run scripts/export_results.go [out.csv] [limit]
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	outPath := "results.csv"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}
	limit := 1000
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("Invalid limit %q: %v", os.Args[2], err)
		}
		limit = n
	}

	cfgPath := os.Getenv("UNO_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver == config.DriverNone {
		log.Fatal("database.driver is none; nothing to export")
	}

	fmt.Println("=== UNO Result Export ===")
	fmt.Printf("Driver: %s\n", cfg.Database.Driver)

	store, err := repository.Open(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open result store: %v", err)
	}
	defer store.Close()

	results, err := store.ListResults(ctx, limit)
	if err != nil {
		log.Fatalf("Failed to list results: %v", err)
	}
	fmt.Printf("Found %d result(s)\n", len(results))

	file, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", outPath, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"game_id", "recorded_at", "finished", "winner", "turns", "reshuffles", "players", "cards_played", "cards_drawn", "counters_earned"}
	if err := w.Write(header); err != nil {
		log.Fatalf("Failed to write header: %v", err)
	}

	for _, r := range results {
		names := make([]string, 0, len(r.Summary.Players))
		played := make([]string, 0, len(r.Summary.Players))
		drawn := make([]string, 0, len(r.Summary.Players))
		earned := make([]string, 0, len(r.Summary.Players))
		for _, p := range r.Summary.Players {
			names = append(names, p.Name)
			played = append(played, strconv.Itoa(p.CardsPlayed))
			drawn = append(drawn, strconv.Itoa(p.CardsDrawn))
			total := 0
			for _, n := range p.CountersEarned {
				total += n
			}
			earned = append(earned, strconv.Itoa(total))
		}
		record := []string{
			r.GameID,
			r.RecordedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(r.Finished),
			r.WinnerName,
			strconv.Itoa(r.Turns),
			strconv.Itoa(r.Summary.Reshuffles),
			strings.Join(names, ";"),
			strings.Join(played, ";"),
			strings.Join(drawn, ";"),
			strings.Join(earned, ";"),
		}
		if err := w.Write(record); err != nil {
			log.Fatalf("Failed to write %s: %v", r.GameID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("Failed to flush CSV: %v", err)
	}
	fmt.Printf("✓ Wrote %s\n", outPath)
}
