package domain

import (
	"strings"

	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
)

// notApplicable is the roster's sentinel for "no placement".
const notApplicable = "N/A"

// MatchStrategy is one way of mapping cleaned prefecture text to a region.
type MatchStrategy interface {
	Name() string
	Match(text string) (gazetteer.Region, bool)
}

// AliasMatch resolves known non-canonical spellings by exact lookup.
type AliasMatch struct {
	Gazetteer *gazetteer.Gazetteer
}

func (AliasMatch) Name() string { return "alias" }

func (m AliasMatch) Match(text string) (gazetteer.Region, bool) {
	return m.Gazetteer.Alias(text)
}

// ExactMatch accepts text equal to a canonical key, ignoring case.
type ExactMatch struct {
	Gazetteer *gazetteer.Gazetteer
}

func (ExactMatch) Name() string { return "exact" }

func (m ExactMatch) Match(text string) (gazetteer.Region, bool) {
	return m.Gazetteer.Region(canonicalKeyFold(m.Gazetteer, text))
}

func canonicalKeyFold(g *gazetteer.Gazetteer, text string) string {
	var key string
	g.Each(func(r gazetteer.Region) bool {
		if strings.EqualFold(r.Key, text) {
			key = r.Key
			return false
		}
		return true
	})
	return key
}

// ContainmentMatch accepts the first region, in gazetteer order, whose key
// contains the text or is contained in it, ignoring case. This tolerates
// suffixes such as "Prefecture" and trailing kanji, at the price of false
// positives: short inputs like "to" match "Tochigi", and a key embedded in an
// unrelated word still matches. Use ExactMatch where that matters.
type ContainmentMatch struct {
	Gazetteer *gazetteer.Gazetteer
}

func (ContainmentMatch) Name() string { return "containment" }

func (m ContainmentMatch) Match(text string) (gazetteer.Region, bool) {
	lower := strings.ToLower(text)
	var (
		found gazetteer.Region
		ok    bool
	)
	m.Gazetteer.Each(func(r gazetteer.Region) bool {
		key := strings.ToLower(r.Key)
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			found, ok = r, true
			return false
		}
		return true
	})
	return found, ok
}

// Normalizer resolves prefecture-style text through an ordered chain of
// strategies. The first strategy to match wins.
type Normalizer struct {
	strategies []MatchStrategy
}

// NewNormalizer returns the permissive chain: alias lookup, then containment.
func NewNormalizer(g *gazetteer.Gazetteer) *Normalizer {
	return NewNormalizerWith(AliasMatch{Gazetteer: g}, ContainmentMatch{Gazetteer: g})
}

// NewStrictNormalizer returns a chain without containment: alias lookup, then
// case-insensitive key equality.
func NewStrictNormalizer(g *gazetteer.Gazetteer) *Normalizer {
	return NewNormalizerWith(AliasMatch{Gazetteer: g}, ExactMatch{Gazetteer: g})
}

// NewNormalizerWith builds a normalizer from an explicit strategy chain.
func NewNormalizerWith(strategies ...MatchStrategy) *Normalizer {
	return &Normalizer{strategies: strategies}
}

// Normalize resolves one raw prefecture field. Empty, blank and "N/A" input
// is unresolved.
func (n *Normalizer) Normalize(raw string) Resolution {
	text, ok := cleanPrefecture(raw)
	if !ok {
		return Unresolved()
	}
	for _, s := range n.strategies {
		if r, ok := s.Match(text); ok {
			return Resolved(r)
		}
	}
	return Unresolved()
}

// cleanPrefecture trims surrounding whitespace and double quotes. It reports
// false when nothing usable remains.
func cleanPrefecture(raw string) (string, bool) {
	if raw == notApplicable {
		return "", false
	}
	text := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if text == "" || text == notApplicable {
		return "", false
	}
	return text, true
}
