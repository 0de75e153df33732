package domain

import (
	"errors"
	"sort"

	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
)

// ErrAggregatorClosed is the panic value raised when an Aggregator is used
// after Finalize. It means the single-pass contract of a run was broken.
var ErrAggregatorClosed = errors.New("aggregator already finalized")

// LocationBucket accumulates the records resolved to one coordinate pair.
type LocationBucket struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"latitude"`
	Lon         float64 `json:"longitude"`
	Count       int     `json:"count"`
	Geohash     string  `json:"geohash,omitempty"`
}

// CategoryCount is one row of a category histogram.
type CategoryCount struct {
	Label       string `json:"label"`
	DisplayName string `json:"display_name,omitempty"`
	Count       int    `json:"count"`
}

// CategoryHistogram counts records per category label and remembers the
// order in which labels were first seen.
type CategoryHistogram struct {
	counts map[string]int
	order  []string
}

func NewCategoryHistogram() *CategoryHistogram {
	return &CategoryHistogram{counts: make(map[string]int)}
}

// Add increments label by one.
func (h *CategoryHistogram) Add(label string) {
	if _, seen := h.counts[label]; !seen {
		h.order = append(h.order, label)
	}
	h.counts[label]++
}

// Count returns the count for label.
func (h *CategoryHistogram) Count(label string) int { return h.counts[label] }

// Len returns the number of distinct labels.
func (h *CategoryHistogram) Len() int { return len(h.order) }

// Entries returns all labels in first-seen order.
func (h *CategoryHistogram) Entries() []CategoryCount {
	out := make([]CategoryCount, len(h.order))
	for i, label := range h.order {
		out[i] = CategoryCount{Label: label, Count: h.counts[label]}
	}
	return out
}

// Top returns the n labels with the highest counts. Ties keep first-seen
// order. n <= 0 returns every label.
func (h *CategoryHistogram) Top(n int) []CategoryCount {
	entries := h.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Counts are the scalar totals of a run.
type Counts struct {
	Total       int
	Resolved    int
	Categorized int
}

// Aggregator folds record outcomes into map buckets and a category histogram
// for one run. Create it with NewAggregator, feed it with Record and close it
// with Finalize. It is not safe for concurrent use; concurrent producers need
// one aggregator each (or a lock around Record).
type Aggregator struct {
	buckets    map[gazetteer.Coord]*LocationBucket
	order      []*LocationBucket
	categories *CategoryHistogram
	counts     Counts
	closed     bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		buckets:    make(map[gazetteer.Coord]*LocationBucket),
		categories: NewCategoryHistogram(),
	}
}

// Record adds one record. Every call counts towards the total, whether or not
// the record resolved. It panics with ErrAggregatorClosed after Finalize.
func (a *Aggregator) Record(o Outcome) {
	if a.closed {
		panic(ErrAggregatorClosed)
	}
	a.counts.Total++

	if r, ok := o.Resolution.Region(); ok {
		a.counts.Resolved++
		coord := r.Coord()
		b, exists := a.buckets[coord]
		if !exists {
			b = &LocationBucket{Lat: r.Lat, Lon: r.Lon}
			a.buckets[coord] = b
			a.order = append(a.order, b)
		}
		b.Count++
		b.Key = r.Key
		b.DisplayName = r.DisplayName
	}

	if o.Category != "" {
		a.counts.Categorized++
		a.categories.Add(o.Category)
	}
}

// Counts returns the running totals.
func (a *Aggregator) Counts() Counts { return a.counts }

// Finalize closes the run and builds its summary. A second call panics with
// ErrAggregatorClosed.
func (a *Aggregator) Finalize(opts SummaryOptions) RunSummary {
	if a.closed {
		panic(ErrAggregatorClosed)
	}
	a.closed = true

	buckets := make([]LocationBucket, len(a.order))
	for i, b := range a.order {
		buckets[i] = *b
	}
	return Summarize(buckets, a.categories, a.counts, opts)
}
