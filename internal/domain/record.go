package domain

import "github.com/couchcryptid/roster-geo-etl/internal/gazetteer"

// Roster column names.
const (
	FieldPrefecture = "JET Prefecture"
	FieldAddress    = "Address"
)

// RawRecord is one roster row. Fields may be missing or empty.
type RawRecord struct {
	Line   int
	Fields map[string]string
}

// Field returns the named field, or "" when the row does not have it.
func (r RawRecord) Field(name string) string {
	return r.Fields[name]
}

// Resolution is the outcome of mapping raw text to a canonical region:
// either resolved to exactly one region, or unresolved. The zero value is
// unresolved.
type Resolution struct {
	region gazetteer.Region
	ok     bool
}

// Resolved wraps a canonical region.
func Resolved(r gazetteer.Region) Resolution {
	return Resolution{region: r, ok: true}
}

// Unresolved is the empty resolution.
func Unresolved() Resolution {
	return Resolution{}
}

// Region returns the resolved region and whether there was one.
func (r Resolution) Region() (gazetteer.Region, bool) {
	return r.region, r.ok
}

// IsResolved reports whether the text resolved to a region.
func (r Resolution) IsResolved() bool { return r.ok }

// Outcome is what a record contributes to an aggregation run: an optional
// map region and an optional category label. The two are independent; a US
// address can name a valid state without a ZIP code that maps to an area.
type Outcome struct {
	Resolution Resolution
	Category   string
}
