package domain

import (
	"regexp"
	"strings"

	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
)

var (
	// postalRe matches a standalone 5-digit ZIP code.
	postalRe = regexp.MustCompile(`\b(\d{5})\b`)

	// stateRe matches "<XX> <ZIP>" in upper-cased text, e.g. "CA 90012".
	stateRe = regexp.MustCompile(`\b([A-Z]{2})\s+\d{5}`)
)

// ParsedAddress holds the fragments extracted from a free-text US address.
// Empty fields were not found.
type ParsedAddress struct {
	City       string `json:"city,omitempty"`
	StateCode  string `json:"state_code,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// AddressParser extracts city, state and ZIP code from address lines using
// regular patterns only. Nothing is checked against a real address database.
type AddressParser struct {
	gazetteer *gazetteer.Gazetteer
	cityRes   map[string]*regexp.Regexp
}

// NewAddressParser builds a parser that accepts the state codes enumerated
// by g.
func NewAddressParser(g *gazetteer.Gazetteer) *AddressParser {
	states := g.States()
	p := &AddressParser{
		gazetteer: g,
		cityRes:   make(map[string]*regexp.Regexp, len(states)),
	}
	for _, s := range states {
		// Leftmost, shortest run of letters, spaces and periods ending right
		// before "<state> <zip>".
		p.cityRes[s.Code] = regexp.MustCompile(`(?i)([A-Za-z\s.]+?)\s+` + regexp.QuoteMeta(s.Code) + `\s+\d{5}`)
	}
	return p
}

// Parse extracts what it can from one address line:
//   - the first standalone 5-digit token is the postal code;
//   - a 2-letter token followed by a 5-digit token is the state code, if the
//     enumeration knows it (the text is upper-cased first, so "ca 90012" counts);
//   - the city is only looked for once a state code is known.
func (p *AddressParser) Parse(raw string) ParsedAddress {
	if strings.TrimSpace(raw) == "" {
		return ParsedAddress{}
	}

	var out ParsedAddress
	if m := postalRe.FindStringSubmatch(raw); m != nil {
		out.PostalCode = m[1]
	}

	if m := stateRe.FindStringSubmatch(strings.ToUpper(raw)); m != nil {
		if _, ok := p.gazetteer.State(m[1]); ok {
			out.StateCode = m[1]
		}
	}

	if out.StateCode != "" {
		out.City = p.parseCity(raw, out.StateCode)
	}
	return out
}

func (p *AddressParser) parseCity(raw, state string) string {
	re, ok := p.cityRes[state]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m[1]), ".")
}
