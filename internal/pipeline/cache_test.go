package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
	"github.com/couchcryptid/roster-geo-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingResolver struct {
	mu    sync.Mutex
	calls int
}

func (m *countingResolver) Field() string { return "Field" }

func (m *countingResolver) Resolve(text string) domain.Outcome {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return domain.Outcome{
		Resolution: domain.Resolved(gazetteer.Region{Key: text, DisplayName: text}),
		Category:   text,
	}
}

// --- CachedResolver tests ---

func TestCachedResolver_CacheHit(t *testing.T) {
	inner := &countingResolver{}
	cached := WithCache(inner, 10, domain.ModePlacement, observability.NewMetricsForTesting())

	o1 := cached.Resolve("Tokyo")
	o2 := cached.Resolve("Tokyo")

	assert.Equal(t, o1, o2)
	assert.Equal(t, "Tokyo", o1.Category)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, "Field", cached.Field())
}

func TestCachedResolver_CachesUnresolved(t *testing.T) {
	g, err := gazetteer.JapanPrefectures()
	require.NoError(t, err)
	cached := WithCache(domain.NewPlacementResolver(domain.NewNormalizer(g)), 10, domain.ModePlacement, observability.NewMetricsForTesting())

	assert.Equal(t, domain.Outcome{}, cached.Resolve("Atlantis"))
	assert.Equal(t, domain.Outcome{}, cached.Resolve("Atlantis"))
	assert.Equal(t, 1, cached.(*CachedResolver).Len())
}

func TestWithCache_ZeroSizeDisables(t *testing.T) {
	inner := &countingResolver{}
	r := WithCache(inner, 0, domain.ModeResidence, observability.NewMetricsForTesting())

	assert.Same(t, inner, r)
}

func TestOutcomeLRU_Eviction(t *testing.T) {
	c := newOutcomeLRU(2)

	c.add("a", domain.Outcome{Category: "A"})
	c.add("b", domain.Outcome{Category: "B"})
	c.add("c", domain.Outcome{Category: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should be evicted")

	v, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", v.Category)

	v, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", v.Category)
}

func TestOutcomeLRU_AccessPromotes(t *testing.T) {
	c := newOutcomeLRU(2)

	c.add("a", domain.Outcome{Category: "A"})
	c.add("b", domain.Outcome{Category: "B"})
	c.get("a")                                // promote a
	c.add("c", domain.Outcome{Category: "C"}) // evicts b

	_, ok := c.get("b")
	assert.False(t, ok, "b should be evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
}

func TestOutcomeLRU_FirstStoreWins(t *testing.T) {
	c := newOutcomeLRU(2)

	assert.Equal(t, "A", c.add("a", domain.Outcome{Category: "A"}).Category)
	assert.Equal(t, "A", c.add("a", domain.Outcome{Category: "A2"}).Category)

	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "A", v.Category)
	assert.Equal(t, 1, c.len())
}

func TestCachedResolver_ConcurrentUse(t *testing.T) {
	inner := &countingResolver{}
	cached := WithCache(inner, 4, domain.ModeResidence, observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i+j)%6)
				assert.Equal(t, key, cached.Resolve(key).Category)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cached.(*CachedResolver).Len(), 4)
}
