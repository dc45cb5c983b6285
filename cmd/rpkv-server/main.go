package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"

	"github.com/heysubinoy/rpkv/internal/api"
	"github.com/heysubinoy/rpkv/internal/logger"
	"github.com/heysubinoy/rpkv/internal/store"
	"github.com/heysubinoy/rpkv/pkg/config"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("rpkv-server failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rpkv-server",
		Usage: "serve the key value store over HTTP and gRPC",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to YAML config file", EnvVars: []string{"RPKV_CONFIG"}},
		},
		Action: func(cCtx *cli.Context) error {
			cfg, err := config.LoadConfig(cCtx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger.Setup(cfg.LogLevel, "rpkv-server")

			ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, nil)
		},
	}
}

// run serves until ctx is done, then shuts both servers down. ready, if
// set, is called with the bound addresses once both listeners are open.
func run(ctx context.Context, cfg *config.Config, ready func(httpAddr, grpcAddr net.Addr)) error {
	fileStore := store.NewFileStore(cfg.Path,
		store.WithAtomicSave(cfg.AtomicSave),
		store.WithLogger(log.With().Str("component", "store").Logger()),
	)
	instrumented := store.NewInstrumentedStore(fileStore)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		grpcLis.Close()
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTPAddr, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterKeyValueServer(grpcServer, api.NewGRPCServer(instrumented, log.With().Str("component", "grpc").Logger()))

	router := api.NewServer(instrumented, log.With().Str("component", "http").Logger()).Routes()
	router.Get("/metrics", api.MetricsHandler(instrumented))
	httpServer := &http.Server{Handler: router}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", grpcLis.Addr().String()).Msg("gRPC server listening")
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("failed to serve gRPC: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", httpLis.Addr().String()).Str("path", cfg.Path).Msg("HTTP server listening")
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	if ready != nil {
		ready(httpLis.Addr(), grpcLis.Addr())
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}
	grpcServer.GracefulStop()

	return serveErr
}
