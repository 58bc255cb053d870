package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/sectiongest/internal/api"
	"github.com/dgallion1/sectiongest/internal/chunker"
	"github.com/dgallion1/sectiongest/internal/config"
	"github.com/dgallion1/sectiongest/internal/pathstore"
	"github.com/dgallion1/sectiongest/internal/pipeline"
	"github.com/dgallion1/sectiongest/internal/section"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	grammar := section.DefaultGrammar()
	if cfg.GrammarFile != "" {
		g, err := section.LoadGrammar(cfg.GrammarFile)
		if err != nil {
			log.Error("load grammar failed", "path", cfg.GrammarFile, "error", err)
			os.Exit(1)
		}
		grammar = g
	}
	log.Info("grammar loaded", "name", grammar.Name, "path", cfg.GrammarFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	splitter := chunker.New(
		chunker.WithMaxWords(cfg.MaxChunkLength),
		chunker.WithGrammar(grammar),
		chunker.WithLogger(log),
	)

	orch := pipeline.NewOrchestrator(cfg, splitter, ps, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		ps.Close()
	}()

	log.Info("starting sectiongest", "port", cfg.Port, "max_words", cfg.MaxChunkLength)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
