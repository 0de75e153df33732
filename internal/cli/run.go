package cli

import (
	"errors"
	"fmt"

	csvadapter "github.com/couchcryptid/roster-geo-etl/internal/adapter/csv"
	"github.com/couchcryptid/roster-geo-etl/internal/adapter/file"
	"github.com/couchcryptid/roster-geo-etl/internal/adapter/kafka"
	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/observability"
	"github.com/couchcryptid/roster-geo-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// runOptions are the flags shared by the roster commands. Zero values fall
// back to the environment configuration.
type runOptions struct {
	output        string
	top           int
	topLocations  int
	strict        bool
	gazetteerPath string
}

func newPlacementCommand(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "placement <roster.csv>",
		Short: "Map JET placements to Japanese prefectures",
		Long: "Reads the \"JET Prefecture\" column, normalizes each value to one of the\n" +
			"47 prefectures and counts subscribers per prefecture.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRoster(cmd, domain.ModePlacement, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "placement-summary.json", "summary JSON output path")
	f.IntVar(&opts.top, "top", 0, "prefectures in the ranking (default TOP_CATEGORIES)")
	f.BoolVar(&opts.strict, "strict", false, "reject values that only contain a prefecture name")
	f.StringVar(&opts.gazetteerPath, "gazetteer", "", "alternative gazetteer YAML table")
	return cmd
}

func newResidenceCommand(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "residence <roster.csv>",
		Short: "Map US mailing addresses to ZIP areas",
		Long: "Reads the \"Address\" column, extracts the state and ZIP code and counts\n" +
			"subscribers per state and per mapped ZIP area.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRoster(cmd, domain.ModeResidence, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "residence-summary.json", "summary JSON output path")
	f.IntVar(&opts.top, "top", 0, "states in the ranking (default TOP_CATEGORIES)")
	f.IntVar(&opts.topLocations, "top-locations", 0, "locations in the console report (default TOP_LOCATIONS)")
	f.StringVar(&opts.gazetteerPath, "gazetteer", "", "alternative gazetteer YAML table")
	return cmd
}

func (a *app) runRoster(cmd *cobra.Command, mode domain.Mode, path string, opts *runOptions) error {
	logger := a.consoleLogger()
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	if opts.top < 0 || opts.topLocations < 0 {
		return errors.New("--top and --top-locations must not be negative")
	}

	g, err := loadGazetteer(mode, opts.gazetteerPath)
	if err != nil {
		return err
	}
	resolver := newResolver(mode, g, opts.strict || a.cfg.Strict())
	resolver = pipeline.WithCache(resolver, a.cfg.ResolverCacheSize, mode, metrics)

	src, err := csvadapter.Open(path, logger)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer src.Close()

	if !src.HasColumn(resolver.Field()) {
		logger.Warn("roster has no such column, every row will be unresolved", "column", resolver.Field(), "path", path)
	}

	loaders := []pipeline.SummaryLoader{file.NewWriter(opts.output, logger)}
	if a.cfg.KafkaEnabled {
		w := kafka.NewWriter(a.cfg, logger)
		defer w.Close()
		loaders = append(loaders, w)
	}

	summaryOpts := domain.SummaryOptions{
		TopCategories: firstPositive(opts.top, a.cfg.TopCategories),
		TopLocations:  firstPositive(opts.topLocations, a.cfg.TopLocations),
		CategoryName:  domain.CategoryNamer(mode, g),
	}
	p := pipeline.New(mode, resolver, summaryOpts, logger, metrics, loaders...)

	summary, err := p.Run(cmd.Context(), src, pipeline.Limits{})
	if err != nil {
		return err
	}

	return writeReport(a.out, summary, opts.output)
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
