package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"habitjournal/internal/logging"
	"habitjournal/internal/session"
	"habitjournal/internal/tags"
	"habitjournal/internal/web"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Idle browser sessions are forgotten after this long.
const sessionIdle = 12 * time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the journal web page",
	Long: `Serves the entry form, the sidebar actions and the dashboard.

Tag files are reloaded when they change on disk unless tags.watch is false.
The server stops cleanly on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newStore(cfg)
	catalog := newCatalog(cfg)
	if err := catalog.Reload(); err != nil {
		logging.TagsWarn("some tag files could not be read: %v", err)
	}

	syncer, err := newSyncer(ctx, cfg, store)
	if err != nil {
		return err
	}
	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	sessions := session.NewStore(sessionIdle)
	srv, err := web.NewServer(web.Config{
		Addr:             cfg.Server.Addr,
		ReadTimeout:      cfg.GetReadTimeout(),
		WriteTimeout:     cfg.GetWriteTimeout(),
		SanitizeAnalysis: cfg.Server.SanitizeAnalysis,
		DateWindowDays:   cfg.Journal.DateWindowDays,
	}, web.Deps{
		Store:    store,
		Syncer:   syncer,
		Tags:     catalog,
		Analyzer: analyzer,
		Sessions: sessions,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sessions.RunSweeper(gctx, time.Minute) })

	if cfg.Tags.Watch {
		watcher, err := tags.NewWatcher(catalog)
		if err != nil {
			logging.TagsWarn("tag hot reload unavailable: %v", err)
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	err = g.Wait()
	logging.Boot("journal stopped")
	return err
}

// commandContext is the context for one-shot commands: cancelled on SIGINT.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}
