package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/topset/internal/autoreg"
	"github.com/claude/topset/internal/catalog"
	"github.com/claude/topset/internal/config"
	"github.com/claude/topset/internal/cycle"
	"github.com/claude/topset/internal/journal"
	topsetmcp "github.com/claude/topset/internal/mcp"
	"github.com/claude/topset/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode)")
	serverURL := flag.String("server", "", "topset server URL (remote mode)")
	apiKey := flag.String("api-key", os.Getenv("TOPSET_AUTH_API_KEY"), "API key for remote mode")
	user := flag.String("user", topsetmcp.DefaultUserID, "login whose data the tools read")
	flag.Parse()

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*configPath == "") == (*serverURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: topset-mcp (-config config.yaml | -server URL [-api-key KEY]) [-user login]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var ds topsetmcp.DataSource
	if *serverURL != "" {
		ds = topsetmcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("remote mode", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		store, err := storage.Open(context.Background(), cfg, "migrations", log)
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		program, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			log.Error("failed to load program", "error", err)
			os.Exit(1)
		}
		j := journal.New(store)
		ds = &topsetmcp.LocalSource{
			Catalog:  program,
			Journal:  j,
			Analyzer: autoreg.NewAnalyzer(j, cfg.Engine.RegressionThreshold),
			Cycle:    cycle.NewScheduler(j),
		}
	}

	s := topsetmcp.New(ds, Version, log)
	err := mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return topsetmcp.WithUserID(ctx, *user)
	}))
	if err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}
