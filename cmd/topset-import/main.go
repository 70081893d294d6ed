package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/topset/internal/catalog"
	"github.com/claude/topset/internal/config"
	"github.com/claude/topset/internal/ingest"
	"github.com/claude/topset/internal/ingest/alpha"
	"github.com/claude/topset/internal/journal"
	"github.com/claude/topset/internal/models"
	"github.com/claude/topset/internal/storage"
)

// discardSink drops sessions during a dry run.
type discardSink struct{}

func (discardSink) SaveSession(context.Context, models.WorkoutSession) error { return nil }

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("path", "", "path to Alpha Progression CSV export (required)")
	user := flag.String("user", "local", "login of the user to import for")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to storage")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: topset-import -config config.yaml -path export.csv [-user login] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Error("cannot open export", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	program, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Error("failed to load program", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var sink alpha.Sink = discardSink{}
	if *dryRun {
		log.Info("DRY RUN mode, no data will be written")
	} else {
		store, err := storage.Open(ctx, cfg, "migrations", log)
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		j := journal.New(store)
		if _, err := j.GetOrCreateUser(ctx, *user, ""); err != nil {
			log.Error("failed to record user", "error", err)
			os.Exit(1)
		}
		sink = j
	}

	result, err := alpha.NewProvider(sink, program, log).Ingest(ctx, f, *user)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	printResult(log, result)
	log.Info("import complete")
}

func printResult(log *slog.Logger, r *ingest.Result) {
	log.Info("import stats",
		"sessions_received", r.SessionsReceived,
		"sessions_imported", r.SessionsImported,
		"sessions_skipped", r.SessionsSkipped,
		"sets_received", r.SetsReceived,
		"sets_imported", r.SetsImported,
	)
	if len(r.UnmatchedExercises) > 0 {
		log.Info("exercises not in program (stored under generated ids)", "exercises", r.UnmatchedExercises)
	}
}
