package cli

import (
	"context"
	"errors"
	"net/http"

	httpadapter "github.com/couchcryptid/roster-geo-etl/internal/adapter/http"
	"github.com/couchcryptid/roster-geo-etl/internal/adapter/kafka"
	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/observability"
	"github.com/couchcryptid/roster-geo-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve roster summaries over HTTP",
		Long: "Starts the HTTP service: POST a roster CSV to /v1/summaries/{placement|residence}\n" +
			"to receive its summary. Health, readiness and Prometheus metrics are served on\n" +
			"/healthz, /readyz and /metrics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var loaders []pipeline.SummaryLoader
	if cfg.KafkaEnabled {
		w := kafka.NewWriter(cfg, logger)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, w)
		logger.Info("kafka summary publishing enabled", "topic", cfg.KafkaSummaryTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka summary publishing disabled")
	}

	runners := make([]httpadapter.Runner, 0, 2)
	for _, mode := range []domain.Mode{domain.ModePlacement, domain.ModeResidence} {
		g, err := loadGazetteer(mode, "")
		if err != nil {
			return err
		}
		resolver := pipeline.WithCache(newResolver(mode, g, cfg.Strict()), cfg.ResolverCacheSize, mode, metrics)
		opts := domain.SummaryOptions{
			TopCategories: cfg.TopCategories,
			TopLocations:  cfg.TopLocations,
			CategoryName:  domain.CategoryNamer(mode, g),
		}
		runners = append(runners, pipeline.New(mode, resolver, opts, logger, metrics, loaders...))
		logger.Info("gazetteer loaded", "mode", mode, "table", g.Name(), "regions", g.Len())
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runners, cfg.MaxUploadBytes, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", "error", err)
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
