// Command genmock writes a synthetic subscriber roster CSV and the summaries
// the pipeline produces for it. It resolves rows with the actual domain
// package so the fixtures always match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -rows 500 -seed 42 \
//	  -csv-out data/mock/roster.csv \
//	  -summary-dir data/mock
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
	"github.com/jonboulle/clockwork"
)

var generatedAt = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

var streets = []string{"Main St", "Oak Ave", "Spring St", "Elm St", "Broadway", "Lake Rd"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// options controls one generation run.
type options struct {
	rows       int
	seed       uint64
	csvOut     string
	summaryDir string
}

func run() error {
	var opts options
	flag.IntVar(&opts.rows, "rows", 200, "number of roster rows")
	flag.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flag.StringVar(&opts.csvOut, "csv-out", "", "output path for the roster CSV")
	flag.StringVar(&opts.summaryDir, "summary-dir", "", "directory for the expected summary JSON files")
	flag.Parse()

	if opts.csvOut == "" || opts.summaryDir == "" || opts.rows < 1 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -summary-dir")
	}
	return generate(opts)
}

// generate writes the roster and one <mode>-summary.json per mode.
func generate(opts options) error {
	jp, err := gazetteer.JapanPrefectures()
	if err != nil {
		return err
	}
	us, err := gazetteer.USPostal()
	if err != nil {
		return err
	}

	// Fixed clock for reproducible generated_at timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed))
	g := &generator{rng: rng, jp: jp, us: us}

	header := []string{"Name", domain.FieldPrefecture, domain.FieldAddress}
	records := make([][]string, 0, opts.rows)
	for i := 0; i < opts.rows; i++ {
		records = append(records, []string{
			"Subscriber " + strconv.Itoa(i+1),
			g.prefecture(),
			g.address(),
		})
	}

	if err := writeCSV(opts.csvOut, header, records); err != nil {
		return fmt.Errorf("writing roster: %w", err)
	}
	log.Printf("wrote roster: %s (%d rows)", opts.csvOut, len(records))

	resolvers := map[domain.Mode]domain.Resolver{
		domain.ModePlacement: domain.NewPlacementResolver(domain.NewNormalizer(jp)),
		domain.ModeResidence: domain.NewResidenceResolver(domain.NewAddressParser(us), domain.NewPostalResolver(us)),
	}
	names := map[domain.Mode]*gazetteer.Gazetteer{domain.ModePlacement: jp, domain.ModeResidence: us}

	for mode, resolver := range resolvers {
		col := 1
		if resolver.Field() == domain.FieldAddress {
			col = 2
		}
		agg := domain.NewAggregator()
		for _, rec := range records {
			agg.Record(resolver.Resolve(rec[col]))
		}
		summary := agg.Finalize(domain.SummaryOptions{
			Mode:         mode,
			CategoryName: domain.CategoryNamer(mode, names[mode]),
		})

		path := filepath.Join(opts.summaryDir, string(mode)+"-summary.json")
		if err := writeJSON(path, summary); err != nil {
			return fmt.Errorf("writing %s summary: %w", mode, err)
		}
		log.Printf("%s: %d/%d resolved, %d regions -> %s",
			mode, summary.ResolvedCount, summary.Total, summary.DistinctRegions, path)
	}
	return nil
}

// generator produces roster cells with a realistic share of alternate
// spellings, blanks and unparseable values.
type generator struct {
	rng *rand.Rand
	jp  *gazetteer.Gazetteer
	us  *gazetteer.Gazetteer
}

func (g *generator) prefecture() string {
	regions := g.jp.Regions()
	r := regions[g.rng.IntN(len(regions))]
	switch n := g.rng.IntN(10); {
	case n == 0:
		return "N/A"
	case n == 1:
		return ""
	case n <= 3:
		return r.Key + " Prefecture"
	case n == 4:
		return `"` + r.DisplayName + `"`
	default:
		return r.Key
	}
}

func (g *generator) address() string {
	states := g.us.States()
	state := states[g.rng.IntN(len(states))]
	number := 100 + g.rng.IntN(9900)
	street := streets[g.rng.IntN(len(streets))]

	switch n := g.rng.IntN(10); {
	case n == 0:
		return "Unknown location"
	case n == 1:
		return fmt.Sprintf("%d %s, Springfield %s", number, street, state.Code)
	case n <= 5:
		codes := g.us.FinePostalCodes()
		return fmt.Sprintf("%d %s, Springfield %s %s", number, street, state.Code, codes[g.rng.IntN(len(codes))])
	case n <= 8:
		prefixes := g.us.CoarsePostalPrefixes()
		return fmt.Sprintf("%d %s, Springfield %s %s%02d", number, street, state.Code, prefixes[g.rng.IntN(len(prefixes))], g.rng.IntN(100))
	default:
		return fmt.Sprintf("%d %s, Springfield %s %05d", number, street, state.Code, g.rng.IntN(100000))
	}
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
