package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-kit/log/level"

	"github.com/trytobebee/snakeai/pkg/logging"
	"github.com/trytobebee/snakeai/pkg/stats"
)

func main() {
	var (
		in      = flag.String("in", "stats.json", "legacy stats export")
		dbPath  = flag.String("db", "data/stats.db", "sqlite stats database")
		replace = flag.Bool("replace", false, "overwrite stored stats instead of adding to them")
	)
	flag.Parse()

	logger, _ := logging.New(os.Stderr, "info")

	// 1. Check if the export exists
	data, err := os.ReadFile(*in)
	if err != nil {
		level.Error(logger).Log("msg", "failed to read export", "file", *in, "err", err)
		os.Exit(1)
	}

	// 2. Parse
	legacy, err := stats.DecodeLegacy(data)
	if err != nil {
		level.Error(logger).Log("msg", "failed to parse export", "file", *in, "err", err)
		os.Exit(1)
	}

	// 3. Open SQLite DB
	store, err := stats.OpenSQLite(*dbPath)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open database", "db", *dbPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	// 4. Import
	ctx := context.Background()
	result := legacy
	if !*replace {
		current, err := store.Load(ctx)
		if err != nil {
			level.Error(logger).Log("msg", "failed to load stored stats", "err", err)
			os.Exit(1)
		}
		result = stats.Merge(current, legacy)
	}
	if err := store.Save(ctx, result); err != nil {
		level.Error(logger).Log("msg", "failed to save stats", "err", err)
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "import complete", "games", result.TotalGamesPlayed,
		"ai_games", result.AIGamesPlayed, "high_score", result.HighScore, "replace", *replace)
	fmt.Printf("✅ Imported stats into %s\n", *dbPath)
}
