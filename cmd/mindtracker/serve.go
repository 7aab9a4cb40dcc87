package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindtracker/internal/ai"
	"mindtracker/internal/config"
	"mindtracker/internal/handlers"
	"mindtracker/internal/storage"
	"mindtracker/internal/usecases"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func runServe(ctx context.Context) error {
	op := "cmd.runServe"
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("Failure to open store in %s: %w", op, err)
	}
	defer closeStore()

	classifier, err := usecases.LoadClassifier(cfg.TriggersFile)
	if err != nil {
		return fmt.Errorf("Failure to load trigger rules in %s: %w", op, err)
	}

	generator := newGenerator(ctx, cfg, log)
	journal := usecases.NewJournal(ctx, store, generator, classifier, usecases.WithJournalLogger(log))

	router, err := newRouter(journal, log)
	if err != nil {
		return fmt.Errorf("Failure to build router in %s: %w", op, err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("provider", generator.Provider()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("Fail Listen and Serve in %s: %w", op, err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	if err := journal.Flush(shutdownCtx); err != nil {
		log.Error("unsaved journal entries on shutdown", zap.Int("entries", journal.Len()), zap.Error(err))
		return err
	}
	return nil
}

// openStore returns the configured backend and a func that releases it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendCSV, "":
		log.Info("using csv store", zap.String("path", cfg.DataFile))
		return storage.NewCSVStorage(cfg.DataFile), func() {}, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to connect to db: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("unable to ping db: %w", err)
		}

		js := storage.NewJournalStorage(pool)
		if err := js.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("connected to db successfully")
		return js, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// newGenerator never fails: a provider that cannot be built is reported here
// and again on every submission.
func newGenerator(ctx context.Context, cfg *config.Config, log *zap.Logger) *ai.ResponseGenerator {
	key, model, baseURL := cfg.ProviderCredentials()
	gen, err := ai.New(ctx, ai.Config{
		Provider:      cfg.AIProvider,
		APIKey:        key,
		Model:         model,
		BaseURL:       baseURL,
		Timeout:       cfg.AITimeout,
		MaxRetries:    cfg.AIMaxRetries,
		SkipTLSVerify: cfg.GigaChatSkipTLSVerify,
	}, log)
	if err != nil {
		log.Warn("AI provider unavailable, submissions will fail until it is configured",
			zap.String("provider", cfg.AIProvider),
			zap.Error(err),
		)
	}
	return gen
}

func newRouter(journal *usecases.Journal, log *zap.Logger) (http.Handler, error) {
	chat, err := handlers.NewChatHandler(journal, log)
	if err != nil {
		return nil, err
	}
	return handlers.NewRouter(chat, handlers.NewJournalHandler(journal, log), log), nil
}
