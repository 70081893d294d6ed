package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/topset/internal/autoreg"
	"github.com/claude/topset/internal/catalog"
	"github.com/claude/topset/internal/checkin"
	"github.com/claude/topset/internal/config"
	"github.com/claude/topset/internal/cycle"
	"github.com/claude/topset/internal/ingest/alpha"
	"github.com/claude/topset/internal/integrity"
	"github.com/claude/topset/internal/journal"
	topsetmcp "github.com/claude/topset/internal/mcp"
	"github.com/claude/topset/internal/server"
	"github.com/claude/topset/internal/session"
	"github.com/claude/topset/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "open storage (running migrations) and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("topset starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, "migrations", log)
	if err != nil {
		log.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	program, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Error("failed to load program", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}
	log.Info("program loaded", "days", len(program.ProgramDays()))

	j := journal.New(store)
	sched := cycle.NewScheduler(j)
	analyzer := autoreg.NewAnalyzer(j, cfg.Engine.RegressionThreshold)
	sessions := session.NewManager(j, program, sched, session.Options{
		SaveDebounce: cfg.Engine.SaveDebounce,
		DurationTick: cfg.Engine.DurationTick,
	}, log)

	srv := server.New(server.Deps{
		Journal:   j,
		Catalog:   program,
		Sessions:  sessions,
		Analyzer:  analyzer,
		Cycle:     sched,
		Checkins:  checkin.NewService(j),
		Integrity: integrity.NewScanner(j, program),
		Alpha:     alpha.NewProvider(j, program, log),
	}, cfg.Auth.APIKey, log)

	mcpSrv := topsetmcp.New(&topsetmcp.LocalSource{
		Catalog:  program,
		Journal:  j,
		Analyzer: analyzer,
		Cycle:    sched,
	}, Version, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return topsetmcp.WithUserID(ctx, server.UserID(r))
		}),
	))

	// Start server, tsnet or plain HTTP
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "api key (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	// Flush in-progress drafts before storage closes.
	sessions.Close()
	log.Info("server stopped")
}
