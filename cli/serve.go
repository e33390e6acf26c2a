package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/camden-git/loreboardbackend/database"
	"github.com/camden-git/loreboardbackend/handlers"
	"github.com/camden-git/loreboardbackend/llm"
	"github.com/camden-git/loreboardbackend/realtime"
	"github.com/camden-git/loreboardbackend/repository"
	"github.com/camden-git/loreboardbackend/services"
	"github.com/camden-git/loreboardbackend/workers"
)

const shutdownTimeout = 15 * time.Second

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := a.logger
	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	client, err := llm.NewClient(ctx, a.cfg.LLMConfig())
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	if a.cfg.LLMProvider == llm.ProviderOpenAI && a.cfg.OpenAIAPIKey == "" ||
		a.cfg.LLMProvider == llm.ProviderGemini && a.cfg.GeminiAPIKey == "" {
		log.Warn("LLM provider has no API key; entity creation and updates will fail", zap.String("provider", a.cfg.LLMProvider))
	}

	repo := repository.NewEntityRepository(db)

	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	dictionaries := workers.NewDictionaryCache(services.CandidateLoader(repo), log)
	defer dictionaries.Stop()

	processor := services.NewEntityProcessor(repo, llm.NewExtractor(client), services.ProcessorOptions{
		Window: services.ContextWindow{
			Radius:    a.cfg.ContextParagraphRadius,
			MinLength: a.cfg.ContextMinLength,
		},
		BulkConcurrency: a.cfg.BulkUpdateConcurrency,
		Index:           dictionaries,
		Notifier:        hub,
		Logger:          log.Named("processor"),
	})

	router := handlers.NewRouter(handlers.RouterConfig{
		Processor:      processor,
		Hub:            hub,
		Log:            log,
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		RequestTimeout: a.cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("database", a.cfg.DatabasePath),
			zap.String("llm_provider", a.cfg.LLMProvider))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
