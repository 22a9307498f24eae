// Package main запускает HTTP-сервер витрины и панели администратора.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/beauty-storefront/internal/config"
	"github.com/mmeshcher/beauty-storefront/internal/currency"
	"github.com/mmeshcher/beauty-storefront/internal/docsource"
	"github.com/mmeshcher/beauty-storefront/internal/handler"
	"github.com/mmeshcher/beauty-storefront/internal/repository"
	"github.com/mmeshcher/beauty-storefront/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI,
		repository.WithMalformedHook(func(collection, id string, err error) {
			logger.Warn("skipping malformed document",
				zap.String("collection", collection),
				zap.String("id", id),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	// интерфейс Source должен остаться nil, если источник не задан
	var source service.Source
	if cfg.SourceAddress != "" {
		source = docsource.NewClient(cfg.SourceAddress)
	} else {
		sugar.Warn("document source address is not set, sync disabled")
	}

	svc := service.NewService(repo, source, logger, service.Settings{
		AdminCurrency: currency.Code(cfg.AdminCurrency),
		WindowDays:    cfg.WindowDays,
		Location:      cfg.Location,
		SyncInterval:  cfg.SyncInterval,
	})
	defer svc.Close()

	h := handler.NewHandler(svc, logger)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая синхронизация зеркала документов
	g.Go(func() error {
		svc.StartSync(ctx)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting storefront server",
			"addr", cfg.RunAddress,
			"currency", cfg.AdminCurrency,
			"timezone", cfg.StoreTimezone,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
