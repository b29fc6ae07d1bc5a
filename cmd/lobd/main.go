// Command lobd runs the TCP order-entry server in front of a single
// in-memory book, with a Prometheus /metrics endpoint alongside it.
// Grounded on cmd/server/server.go's two-listener shape (trading port
// + admin/metrics port) and its zerolog setup.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ironbook/internal/book"
	"ironbook/internal/config"
	"ironbook/internal/metrics"
	"ironbook/internal/server"
)

func main() {
	cfg := config.FromEnv()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	b := book.New(1, "Primary", "IRON")
	collector := metrics.NewCollector("ironbook")
	b.SetObserver(collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	admin := &http.Server{Addr: cfg.AdminAddr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.AdminAddr).Msg("admin server listening")
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("admin server failed")
		}
	}()

	srv := server.New(cfg.ListenAddr, b, collector, cfg.Workers)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}

	_ = admin.Shutdown(context.Background())
}
