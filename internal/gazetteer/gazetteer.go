package gazetteer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/golang/geo/s2"
)

var (
	// ErrCoordinateCollision is returned when two canonical regions share a
	// coordinate pair. Their counts would silently merge into one map bucket.
	ErrCoordinateCollision = errors.New("coordinate collision")

	// ErrUnknownRegion is returned when an alias or lookup names a key that is
	// not in the table.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrInvalidTable covers every other structural problem in a table.
	ErrInvalidTable = errors.New("invalid gazetteer table")
)

// Coord is a latitude/longitude pair. It is comparable and serves as the
// aggregation bucket key.
type Coord struct {
	Lat float64
	Lon float64
}

// Region is a canonical geographic point. Regions are only ever created by
// loading a Table.
type Region struct {
	Key         string
	DisplayName string
	Lat         float64
	Lon         float64
}

// Coord returns the region's bucket key.
func (r Region) Coord() Coord {
	return Coord{Lat: r.Lat, Lon: r.Lon}
}

// State is an entry in the state/territory enumeration.
type State struct {
	Code string
	Name string
}

// Gazetteer is the read-only reference dataset: canonical regions in table
// order, the alias table, the postal tables and the state enumeration.
// It is never mutated after New returns and is safe to share between goroutines.
type Gazetteer struct {
	name    string
	regions []Region
	byKey   map[string]int

	aliases      map[string]string
	finePostal   map[string]string
	coarsePostal map[string]string

	states      []State
	stateByCode map[string]State
}

// New validates a Table and builds a Gazetteer from it.
func New(t Table) (*Gazetteer, error) {
	g := &Gazetteer{
		name:         t.Name,
		regions:      make([]Region, 0, len(t.Regions)),
		byKey:        make(map[string]int, len(t.Regions)),
		aliases:      make(map[string]string, len(t.Aliases)),
		finePostal:   make(map[string]string),
		coarsePostal: make(map[string]string),
		stateByCode:  make(map[string]State, len(t.States)),
	}

	cells := make(map[s2.CellID]string, len(t.Regions))
	for i, entry := range t.Regions {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			return nil, fmt.Errorf("%w: region #%d has no key", ErrInvalidTable, i+1)
		}
		if _, dup := g.byKey[key]; dup {
			return nil, fmt.Errorf("%w: duplicate region key %q", ErrInvalidTable, key)
		}

		ll := s2.LatLngFromDegrees(entry.Lat, entry.Lon)
		if !ll.IsValid() {
			return nil, fmt.Errorf("%w: region %q has invalid coordinates (%g, %g)", ErrInvalidTable, key, entry.Lat, entry.Lon)
		}
		cell := s2.CellIDFromLatLng(ll)
		if other, taken := cells[cell]; taken {
			return nil, fmt.Errorf("%w: %q and %q both sit at (%g, %g)", ErrCoordinateCollision, other, key, entry.Lat, entry.Lon)
		}
		cells[cell] = key

		name := entry.Name
		if name == "" {
			name = key
		}
		g.byKey[key] = len(g.regions)
		g.regions = append(g.regions, Region{Key: key, DisplayName: name, Lat: entry.Lat, Lon: entry.Lon})

		for _, code := range entry.Postal {
			if err := g.addPostal(code, key); err != nil {
				return nil, err
			}
		}
	}

	for alias, key := range t.Aliases {
		if _, ok := g.byKey[key]; !ok {
			return nil, fmt.Errorf("%w: alias %q points at %q", ErrUnknownRegion, alias, key)
		}
		g.aliases[alias] = key
	}

	for _, s := range t.States {
		if !isStateCode(s.Code) {
			return nil, fmt.Errorf("%w: state code %q must be two uppercase letters", ErrInvalidTable, s.Code)
		}
		if _, dup := g.stateByCode[s.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate state code %q", ErrInvalidTable, s.Code)
		}
		st := State{Code: s.Code, Name: s.Name}
		g.states = append(g.states, st)
		g.stateByCode[s.Code] = st
	}

	return g, nil
}

func (g *Gazetteer) addPostal(code, key string) error {
	if !isDigits(code) {
		return fmt.Errorf("%w: postal code %q of %q is not numeric", ErrInvalidTable, code, key)
	}

	var table map[string]string
	switch len(code) {
	case 5:
		table = g.finePostal
	case 3:
		table = g.coarsePostal
	default:
		return fmt.Errorf("%w: postal code %q of %q must have 3 or 5 digits", ErrInvalidTable, code, key)
	}

	if owner, taken := table[code]; taken {
		return fmt.Errorf("%w: postal code %q claimed by both %q and %q", ErrInvalidTable, code, owner, key)
	}
	table[code] = key
	return nil
}

// Name identifies the table the gazetteer was loaded from.
func (g *Gazetteer) Name() string { return g.name }

// Len returns the number of canonical regions.
func (g *Gazetteer) Len() int { return len(g.regions) }

// Regions returns a copy of the canonical regions in table order.
func (g *Gazetteer) Regions() []Region {
	out := make([]Region, len(g.regions))
	copy(out, g.regions)
	return out
}

// Each calls fn for every region in table order until fn returns false.
func (g *Gazetteer) Each(fn func(Region) bool) {
	for _, r := range g.regions {
		if !fn(r) {
			return
		}
	}
}

// Region looks up a canonical region by key.
func (g *Gazetteer) Region(key string) (Region, bool) {
	i, ok := g.byKey[key]
	if !ok {
		return Region{}, false
	}
	return g.regions[i], true
}

// Alias resolves a known non-canonical spelling. The match is exact.
func (g *Gazetteer) Alias(text string) (Region, bool) {
	key, ok := g.aliases[text]
	if !ok {
		return Region{}, false
	}
	return g.Region(key)
}

// FinePostal looks up a 5-digit postal code.
func (g *Gazetteer) FinePostal(code string) (Region, bool) {
	key, ok := g.finePostal[code]
	if !ok {
		return Region{}, false
	}
	return g.Region(key)
}

// CoarsePostal looks up a 3-digit postal prefix.
func (g *Gazetteer) CoarsePostal(prefix string) (Region, bool) {
	key, ok := g.coarsePostal[prefix]
	if !ok {
		return Region{}, false
	}
	return g.Region(key)
}

// FinePostalCodes returns every 5-digit code in the table, sorted.
func (g *Gazetteer) FinePostalCodes() []string {
	return sortedKeys(g.finePostal)
}

// CoarsePostalPrefixes returns every 3-digit prefix in the table, sorted.
func (g *Gazetteer) CoarsePostalPrefixes() []string {
	return sortedKeys(g.coarsePostal)
}

// State returns the enumeration entry for a 2-letter code.
func (g *Gazetteer) State(code string) (State, bool) {
	s, ok := g.stateByCode[code]
	return s, ok
}

// States returns the state/territory enumeration in table order.
func (g *Gazetteer) States() []State {
	out := make([]State, len(g.states))
	copy(out, g.states)
	return out
}

// Stats summarizes table sizes for logging and the CLI.
type Stats struct {
	Regions      int `json:"regions"`
	Aliases      int `json:"aliases"`
	FinePostal   int `json:"fine_postal"`
	CoarsePostal int `json:"coarse_postal"`
	States       int `json:"states"`
}

// Stats returns the table sizes.
func (g *Gazetteer) Stats() Stats {
	return Stats{
		Regions:      len(g.regions),
		Aliases:      len(g.aliases),
		FinePostal:   len(g.finePostal),
		CoarsePostal: len(g.coarsePostal),
		States:       len(g.states),
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isStateCode(s string) bool {
	return len(s) == 2 && s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
}
