package domain

import "github.com/couchcryptid/roster-geo-etl/internal/gazetteer"

// coarsePrefixLen is the length of the ZIP prefix used as a fallback.
const coarsePrefixLen = 3

// PostalResolver maps ZIP codes to canonical regions. An exact 5-digit entry
// wins over its 3-digit prefix; codes found in neither table stay unresolved.
// There is no interpolation or nearest-neighbour guessing.
type PostalResolver struct {
	gazetteer *gazetteer.Gazetteer
}

func NewPostalResolver(g *gazetteer.Gazetteer) *PostalResolver {
	return &PostalResolver{gazetteer: g}
}

func (p *PostalResolver) Resolve(postal string) Resolution {
	if postal == "" {
		return Unresolved()
	}
	if r, ok := p.gazetteer.FinePostal(postal); ok {
		return Resolved(r)
	}
	if len(postal) >= coarsePrefixLen {
		if r, ok := p.gazetteer.CoarsePostal(postal[:coarsePrefixLen]); ok {
			return Resolved(r)
		}
	}
	return Unresolved()
}
