package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/probeops/observe"
	"github.com/jonwraymond/probeops/probes"
	"github.com/jonwraymond/probeops/publish"
	"github.com/jonwraymond/probeops/serve"
	"github.com/jonwraymond/probeops/store"
)

const shutdownGrace = 10 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the batch API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveAPI(cmd, *configPath, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides the config file)")
	return cmd
}

func serveAPI(cmd *cobra.Command, configPath, addrFlag string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	file, err := LoadFile(configPath)
	if err != nil {
		return err
	}

	addr := file.Server.Addr
	if addrFlag != "" {
		addr = addrFlag
	}
	if addr == "" {
		addr = ":8080"
	}

	obs, err := newObserver(ctx, file)
	if err != nil {
		return err
	}
	defer shutdownObserver(obs)
	logger := obs.Logger()

	server := serve.New(probes.DefaultRegistry(), serve.Config{
		Defaults:       file.RunnerConfig(obs),
		AllowedOrigins: file.Server.AllowedOrigins,
		APIKeyHashes:   file.Server.APIKeyHashes,
		JWTSecret:      jwtSecret(file),
		EnableMetrics:  file.Server.Metrics,
		MaxBatchSize:   file.Server.MaxBatchSize,
	})

	if file.Database != "" {
		db, err := store.Open(file.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		server.SetStore(db)
	}

	if len(file.Kafka.Brokers) > 0 && file.Kafka.Topic != "" {
		pub := publish.NewPublisher(file.Kafka.Brokers, file.Kafka.Topic)
		defer pub.Close()
		server.SetPublisher(pub)
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: addr})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func jwtSecret(file *File) []byte {
	if file.Server.JWTSecret == "" {
		return nil
	}
	return []byte(file.Server.JWTSecret)
}

func newObserver(ctx context.Context, file *File) (observe.Observer, error) {
	obs, err := observe.NewObserver(ctx, file.ObserveConfig())
	if err != nil {
		return nil, fmt.Errorf("setting up observability: %w", err)
	}
	return obs, nil
}

func shutdownObserver(obs observe.Observer) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	_ = obs.Shutdown(ctx)
}
