package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/observability"
)

// RecordSource yields roster rows one at a time. Next returns io.EOF once the
// source is exhausted.
type RecordSource interface {
	Next(ctx context.Context) (domain.RawRecord, error)
}

// SummaryLoader hands a finished run summary to a sink.
type SummaryLoader interface {
	Name() string
	Load(ctx context.Context, summary domain.RunSummary) error
}

// Limits overrides the configured ranking sizes for a single run. Zero fields
// keep the configured value.
type Limits struct {
	TopCategories int
	TopLocations  int
}

// Pipeline runs one roster mode: read, resolve, aggregate, summarize, load.
// A Pipeline is reusable and safe for concurrent Runs; each Run owns its
// Aggregator.
type Pipeline struct {
	mode     domain.Mode
	resolver domain.Resolver
	opts     domain.SummaryOptions
	loaders  []SummaryLoader
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Pipeline for mode. opts supplies the default ranking sizes
// and category names; its Mode is overwritten with mode.
func New(mode domain.Mode, resolver domain.Resolver, opts domain.SummaryOptions, logger *slog.Logger, metrics *observability.Metrics, loaders ...SummaryLoader) *Pipeline {
	opts.Mode = mode
	return &Pipeline{
		mode:     mode,
		resolver: resolver,
		opts:     opts,
		loaders:  loaders,
		logger:   logger,
		metrics:  metrics,
	}
}

// Mode returns the roster mode this pipeline resolves.
func (p *Pipeline) Mode() domain.Mode { return p.mode }

// CheckReadiness asks every loader that can report readiness whether it is
// reachable.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	for _, l := range p.loaders {
		rc, ok := l.(interface{ CheckReadiness(context.Context) error })
		if !ok {
			continue
		}
		if err := rc.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("%s sink: %w", l.Name(), err)
		}
	}
	return nil
}

// Run drains src, aggregates every record and hands the summary to each
// loader in order. Unresolvable records are counted, not reported as errors.
// Read errors, loader errors and context cancellation end the run with an
// error; after a loader failure the summary is still returned.
func (p *Pipeline) Run(ctx context.Context, src RecordSource, limits Limits) (domain.RunSummary, error) {
	start := time.Now()
	p.metrics.RunsActive.Inc()
	defer p.metrics.RunsActive.Dec()

	mode := string(p.mode)
	field := p.resolver.Field()
	agg := domain.NewAggregator()

	p.logger.Info("run started", "mode", mode, "field", field)

	for {
		if err := ctx.Err(); err != nil {
			return domain.RunSummary{}, err
		}

		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RunSummary{}, fmt.Errorf("read record: %w", err)
		}

		out := p.resolver.Resolve(rec.Field(field))
		agg.Record(out)

		p.metrics.RecordsProcessed.WithLabelValues(mode).Inc()
		if out.Resolution.IsResolved() {
			p.metrics.RecordsResolved.WithLabelValues(mode).Inc()
		} else {
			p.metrics.RecordsUnresolved.WithLabelValues(mode).Inc()
			p.logger.Debug("record unresolved", "mode", mode, "line", rec.Line)
		}
		if out.Category != "" {
			p.metrics.RecordsCategorized.WithLabelValues(mode).Inc()
		}
	}

	summary := agg.Finalize(p.options(limits))
	p.metrics.RunDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	p.logger.Info("run complete",
		"mode", mode,
		"total", summary.Total,
		"resolved", summary.ResolvedCount,
		"categorized", summary.CategorizedCount,
		"distinct_regions", summary.DistinctRegions,
	)

	for _, l := range p.loaders {
		if err := l.Load(ctx, summary); err != nil {
			p.metrics.LoaderErrors.WithLabelValues(l.Name()).Inc()
			p.logger.Error("load summary failed", "sink", l.Name(), "error", err)
			return summary, fmt.Errorf("load summary to %s: %w", l.Name(), err)
		}
		p.metrics.Published.WithLabelValues(l.Name()).Inc()
	}

	return summary, nil
}

func (p *Pipeline) options(l Limits) domain.SummaryOptions {
	opts := p.opts
	if l.TopCategories > 0 {
		opts.TopCategories = l.TopCategories
	}
	if l.TopLocations > 0 {
		opts.TopLocations = l.TopLocations
	}
	return opts
}
