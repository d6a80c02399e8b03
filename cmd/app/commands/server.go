package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Runnable is a server that serves until Shutdown is called.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// RunServer serves the API server and, when non-nil, the metrics server until ctx is
// cancelled or one of them fails. Both are then shut down within shutdownTimeout.
func RunServer(
	ctx context.Context,
	logger *slog.Logger,
	version string,
	server Runnable,
	metricsServer Runnable,
	shutdownTimeout time.Duration,
) error {
	logger.Info("starting server", slog.String("version", version))

	servers := []Runnable{server}
	if metricsServer != nil {
		servers = append(servers, metricsServer)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			return s.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErrors []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, err)
			}
		}
		if len(shutdownErrors) > 0 {
			return fmt.Errorf("shutdown: %w", errors.Join(shutdownErrors...))
		}
		return nil
	})

	return g.Wait()
}
