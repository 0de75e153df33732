package cli

import (
	"fmt"
	"io"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
)

// writeReport prints the console summary of a run. Percentages are rounded
// down and are 0 for an empty roster.
func writeReport(w io.Writer, s domain.RunSummary, outputPath string) error {
	ew := &errWriter{w: w}

	switch s.Mode {
	case domain.ModePlacement:
		ew.printf("\n=== JET Placement Analysis ===\n")
		ew.printf("Total subscribers: %d\n", s.Total)
		ew.printf("With JET placement data: %d (%d%%)\n", s.ResolvedCount, domain.Percent(s.ResolvedCount, s.Total))
		ew.printf("Prefectures represented: %d\n", len(s.Categories))

		ew.printf("\n--- Top Prefectures ---\n")
		for _, c := range s.Ranking {
			ew.printf("  %s: %d\n", displayName(c), c.Count)
		}
	default:
		ew.printf("\n=== Geographic Analysis ===\n")
		ew.printf("Total subscribers: %d\n", s.Total)
		ew.printf("With parseable address: %d (%d%%)\n", s.CategorizedCount, domain.Percent(s.CategorizedCount, s.Total))
		ew.printf("Geocoded to coordinates: %d\n", s.ResolvedCount)

		ew.printf("\n--- Top States ---\n")
		for _, c := range s.Ranking {
			ew.printf("  %s: %d\n", displayName(c), c.Count)
		}

		ew.printf("\n--- Top Locations ---\n")
		for _, b := range s.TopLocations {
			ew.printf("  %s: %d\n", b.DisplayName, b.Count)
		}
	}

	ew.printf("\nGenerated: %s\n", outputPath)
	return ew.err
}

func displayName(c domain.CategoryCount) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Label
}

// errWriter keeps the first write error so the report reads as a straight
// sequence of prints.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
