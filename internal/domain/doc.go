// Package domain resolves roster location text to canonical regions and
// aggregates the results for a bubble map and a bar chart.
//
// # Roster Data Conventions
//
// Two free-text columns are read, one per pipeline:
//
//	"JET Prefecture"  e.g. "Hyogo Pref.兵庫県", "Tokyo Metropolitan Government東京都",
//	                  "Nagano", "N/A" (sentinel for no placement)
//	"Address"         a US mailing address on one line,
//	                  e.g. "123 Main St, Los Angeles CA 90012"
//
// # Prefecture Normalization
//
// Text is trimmed of whitespace and double quotes, then matched by a chain of
// [MatchStrategy] values. The default chain is alias lookup followed by
// case-insensitive substring containment in gazetteer order. Containment
// accepts "Nagano-ken" and "Kyoto Pref." but also short fragments ("to" is
// Tochigi); [NewStrictNormalizer] drops it.
//
// # Address Parsing
//
//	ZIP:   first standalone 5-digit token.
//	State: first "<XX> <5 digits>" pair, XX upper-cased and checked against the
//	       state/territory enumeration.
//	City:  shortest run of letters, spaces and periods before "<XX> <ZIP>".
//
// The first 5-digit token wins even when it is a house number; "12345 Elm St,
// Reno NV 89501" yields ZIP 12345.
//
// ZIP codes resolve to an exact 5-digit area when one exists, else to the
// area of their 3-digit prefix, else to nothing.
//
// # Aggregation
//
// Map buckets are keyed by coordinate pair. Categories (state code, or
// prefecture key) are counted independently of the map: an address with a
// valid state and an unknown ZIP counts towards its state only. Rankings sort
// by descending count and keep first-seen order on ties.
package domain
