package cli

import (
	"fmt"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
)

// loadGazetteer returns the embedded table for mode, or the table at path
// when one is given.
func loadGazetteer(mode domain.Mode, path string) (*gazetteer.Gazetteer, error) {
	if path != "" {
		g, err := gazetteer.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load gazetteer: %w", err)
		}
		return g, nil
	}
	switch mode {
	case domain.ModePlacement:
		return gazetteer.JapanPrefectures()
	case domain.ModeResidence:
		return gazetteer.USPostal()
	default:
		return nil, fmt.Errorf("no gazetteer for mode %q", mode)
	}
}

// newResolver builds the record resolver for mode. strict only affects the
// placement mode.
func newResolver(mode domain.Mode, g *gazetteer.Gazetteer, strict bool) domain.Resolver {
	if mode == domain.ModeResidence {
		return domain.NewResidenceResolver(domain.NewAddressParser(g), domain.NewPostalResolver(g))
	}
	n := domain.NewNormalizer(g)
	if strict {
		n = domain.NewStrictNormalizer(g)
	}
	return domain.NewPlacementResolver(n)
}
