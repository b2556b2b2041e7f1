package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/pandorica/internal/app"
	"github.com/allisson/pandorica/internal/config"
)

// Runnable is a server with a blocking Start and a graceful Shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// RunServer loads the active master key, then serves the API and, when enabled, the
// metrics endpoint until SIGINT or SIGTERM. A master key that cannot be loaded aborts
// startup.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting pandorica", slog.String("version", version))
	defer closeContainer(container, logger, cfg.ServerShutdownTimeout)

	keyManagement, err := container.KeyManagementUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize key management: %w", err)
	}
	if err := keyManagement.Init(ctx); err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	servers := []Runnable{server}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		servers = append(servers, metricsServer)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Serve(ctx, logger, cfg.ServerShutdownTimeout, servers...)
}

// Serve starts every server and shuts all of them down, within shutdownTimeout, once ctx
// is done or any server fails to start.
func Serve(ctx context.Context, logger *slog.Logger, shutdownTimeout time.Duration, servers ...Runnable) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, server := range servers {
		g.Go(func() error {
			return server.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, server := range servers {
			if err := server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func closeContainer(container *app.Container, logger *slog.Logger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := container.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
