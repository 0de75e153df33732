package domain

import (
	"fmt"

	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
)

// Mode names a roster pipeline.
type Mode string

const (
	// ModePlacement maps JET placements to Japanese prefectures.
	ModePlacement Mode = "placement"
	// ModeResidence maps US mailing addresses to ZIP areas, ranked by state.
	ModeResidence Mode = "residence"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlacement, ModeResidence:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModePlacement, ModeResidence)
	}
}

// Resolver turns the text of one roster field into an Outcome. Implementations
// are pure functions of their input and their gazetteer.
type Resolver interface {
	// Field is the roster column the resolver reads.
	Field() string
	Resolve(text string) Outcome
}

// PlacementResolver resolves "JET Prefecture" text. The category is the
// prefecture key, so category and bucket always agree.
type PlacementResolver struct {
	normalizer *Normalizer
}

func NewPlacementResolver(n *Normalizer) *PlacementResolver {
	return &PlacementResolver{normalizer: n}
}

func (p *PlacementResolver) Field() string { return FieldPrefecture }

func (p *PlacementResolver) Resolve(text string) Outcome {
	res := p.normalizer.Normalize(text)
	r, ok := res.Region()
	if !ok {
		return Outcome{}
	}
	return Outcome{Resolution: res, Category: r.Key}
}

// ResidenceResolver resolves "Address" text. The category is the state code.
// A map region is only looked up once a valid state code was found, which
// keeps stray 5-digit numbers in unparseable lines off the map.
type ResidenceResolver struct {
	parser *AddressParser
	postal *PostalResolver
}

func NewResidenceResolver(parser *AddressParser, postal *PostalResolver) *ResidenceResolver {
	return &ResidenceResolver{parser: parser, postal: postal}
}

func (r *ResidenceResolver) Field() string { return FieldAddress }

func (r *ResidenceResolver) Resolve(text string) Outcome {
	addr := r.parser.Parse(text)
	if addr.StateCode == "" {
		return Outcome{}
	}
	return Outcome{
		Resolution: r.postal.Resolve(addr.PostalCode),
		Category:   addr.StateCode,
	}
}

// CategoryNamer returns the display name for a category label of the given
// mode: the full state name for residence, the prefecture display name for
// placement. Unknown labels are returned unchanged.
func CategoryNamer(mode Mode, g *gazetteer.Gazetteer) func(string) string {
	return func(label string) string {
		switch mode {
		case ModeResidence:
			if s, ok := g.State(label); ok && s.Name != "" {
				return s.Name
			}
		case ModePlacement:
			if r, ok := g.Region(label); ok {
				return r.DisplayName
			}
		}
		return label
	}
}
