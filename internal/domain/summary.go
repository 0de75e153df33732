package domain

import (
	"sort"
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// Default ranking sizes: the bar chart shows 15 categories, the console
// report lists 25 locations.
const (
	DefaultTopCategories = 15
	DefaultTopLocations  = 25
)

// SummaryOptions controls how a run summary is ranked and labelled.
type SummaryOptions struct {
	Mode          Mode
	TopCategories int
	TopLocations  int
	// CategoryName maps a category label to its display name. Nil leaves
	// display names empty.
	CategoryName func(label string) string
}

// RunSummary is the only artifact a renderer consumes. It is built once per
// run and not modified afterwards.
type RunSummary struct {
	Mode             Mode             `json:"mode,omitempty"`
	Total            int              `json:"total"`
	ResolvedCount    int              `json:"resolved_count"`
	CategorizedCount int              `json:"categorized_count"`
	DistinctRegions  int              `json:"distinct_regions"`
	ResolutionRate   float64          `json:"resolution_rate"`
	Buckets          []LocationBucket `json:"buckets"`
	TopLocations     []LocationBucket `json:"top_locations"`
	Ranking          []CategoryCount  `json:"ranking"`
	Categories       []CategoryCount  `json:"categories"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// Summarize computes totals, rates and rankings. Buckets keep the order they
// are given in; TopLocations and Ranking sort by descending count with ties
// in first-seen order. A run with no records has a resolution rate of 0.
func Summarize(buckets []LocationBucket, categories *CategoryHistogram, counts Counts, opts SummaryOptions) RunSummary {
	topCategories := opts.TopCategories
	if topCategories <= 0 {
		topCategories = DefaultTopCategories
	}
	topLocations := opts.TopLocations
	if topLocations <= 0 {
		topLocations = DefaultTopLocations
	}

	out := make([]LocationBucket, len(buckets))
	for i, b := range buckets {
		b.Geohash = geohash.Encode(b.Lat, b.Lon)
		out[i] = b
	}

	ranked := make([]LocationBucket, len(out))
	copy(ranked, out)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topLocations {
		ranked = ranked[:topLocations]
	}

	if categories == nil {
		categories = NewCategoryHistogram()
	}
	ranking := nameCategories(categories.Top(topCategories), opts.CategoryName)
	all := nameCategories(categories.Entries(), opts.CategoryName)

	var rate float64
	if counts.Total > 0 {
		rate = float64(counts.Resolved) / float64(counts.Total)
	}

	return RunSummary{
		Mode:             opts.Mode,
		Total:            counts.Total,
		ResolvedCount:    counts.Resolved,
		CategorizedCount: counts.Categorized,
		DistinctRegions:  len(out),
		ResolutionRate:   rate,
		Buckets:          out,
		TopLocations:     ranked,
		Ranking:          ranking,
		Categories:       all,
		GeneratedAt:      now(),
	}
}

func nameCategories(entries []CategoryCount, name func(string) string) []CategoryCount {
	if name == nil {
		return entries
	}
	for i := range entries {
		entries[i].DisplayName = name(entries[i].Label)
	}
	return entries
}

// Percent returns part as a whole-number percentage of total, rounded down,
// or 0 when total is 0.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return part * 100 / total
}
