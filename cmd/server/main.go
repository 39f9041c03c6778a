package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"clipkeeper/internal/app/server/api"
	"clipkeeper/internal/app/server/config"
	"clipkeeper/internal/domain/ingest"
	"clipkeeper/internal/infrastructure/migration"
	"clipkeeper/internal/infrastructure/storage/content"
	"clipkeeper/internal/infrastructure/storage/postgres"
	"clipkeeper/internal/utils/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	conf := config.MustLoad()
	log := logger.New(conf.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, conf *config.Config, log *slog.Logger) error {
	storage, err := postgres.New(ctx, conf, migration.DefaultEngine)
	if err != nil {
		return err
	}
	defer storage.Close()

	store, err := contentStore(ctx, conf)
	if err != nil {
		return err
	}

	repo := postgres.NewVideoRepository(storage.Pool(), log)
	service := ingest.NewService(repo, store, conf.Server.PublicURL, conf.Server.MaxUploadBytes, log)

	srv := &http.Server{
		Addr:              conf.Server.RunAddress,
		Handler:           api.New(service, storage, conf.Server.MaxUploadBytes, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			"address", conf.Server.RunAddress,
			"public_url", conf.Server.PublicURL,
			"content_backend", conf.Content.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func contentStore(ctx context.Context, conf *config.Config) (ingest.ContentStore, error) {
	if conf.Content.Backend == config.BackendS3 {
		return content.NewS3(ctx, conf.Content.S3Bucket, conf.Content.S3Endpoint)
	}
	return content.NewFS(conf.Content.Dir)
}
