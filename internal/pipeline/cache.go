package pipeline

import (
	"container/list"
	"sync"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/observability"
)

// CachedResolver wraps a Resolver with an in-memory LRU cache keyed by the raw
// field text. Rosters repeat the same prefecture and city strings many times.
type CachedResolver struct {
	inner   domain.Resolver
	cache   *outcomeLRU
	mode    string
	metrics *observability.Metrics
}

// WithCache decorates inner with a cache of maxEntries outcomes. A size of
// zero or less returns inner unchanged.
func WithCache(inner domain.Resolver, maxEntries int, mode domain.Mode, metrics *observability.Metrics) domain.Resolver {
	if maxEntries <= 0 {
		return inner
	}
	return &CachedResolver{
		inner:   inner,
		cache:   newOutcomeLRU(maxEntries),
		mode:    string(mode),
		metrics: metrics,
	}
}

func (c *CachedResolver) Field() string { return c.inner.Field() }

func (c *CachedResolver) Resolve(text string) domain.Outcome {
	if out, ok := c.cache.get(text); ok {
		c.metrics.ResolverCache.WithLabelValues(c.mode, "hit").Inc()
		return out
	}
	c.metrics.ResolverCache.WithLabelValues(c.mode, "miss").Inc()
	return c.cache.add(text, c.inner.Resolve(text))
}

// Len returns the number of cached outcomes.
func (c *CachedResolver) Len() int { return c.cache.len() }

// outcomeLRU maps raw field text to its outcome, evicting the least recently
// used text once full. Outcomes never change for a given text, so an entry is
// written once and only ever promoted afterwards.
type outcomeLRU struct {
	capacity int
	mu       sync.Mutex
	order    *list.List // front is most recently used
	byText   map[string]*list.Element
}

type cachedOutcome struct {
	text    string
	outcome domain.Outcome
}

func newOutcomeLRU(capacity int) *outcomeLRU {
	return &outcomeLRU{
		capacity: capacity,
		order:    list.New(),
		byText:   make(map[string]*list.Element, capacity),
	}
}

func (c *outcomeLRU) get(text string) (domain.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byText[text]
	if !ok {
		return domain.Outcome{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedOutcome).outcome, true
}

// add stores the outcome for text and returns the cached one. When another
// caller stored text first, its outcome is kept and returned.
func (c *outcomeLRU) add(text string, out domain.Outcome) domain.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byText[text]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cachedOutcome).outcome
	}

	c.byText[text] = c.order.PushFront(&cachedOutcome{text: text, outcome: out})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byText, oldest.Value.(*cachedOutcome).text)
	}
	return out
}

func (c *outcomeLRU) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
