// Package gazetteer holds the static reference data that location text is
// resolved against.
//
// # Tables
//
// Two tables are embedded:
//
//	jp-prefectures  47 prefectures at their capital cities, plus exact-match
//	                aliases for the roster's "<Name> Pref.<kanji>" spellings.
//	us-postal       US states and territories, plus named areas keyed by
//	                5-digit ZIP code (dense metro areas) or 3-digit ZIP prefix.
//
// # Invariants
//
// Checked by [New] before any record is processed:
//
//   - region keys are unique;
//   - no two regions share a coordinate pair (compared as S2 leaf cells), since
//     map buckets are keyed by coordinates;
//   - aliases point at existing regions;
//   - a postal code or prefix belongs to exactly one region.
//
// Several postal prefixes may resolve to one region (e.g. 932 and 933 both map
// to Bakersfield); that is the intended way to share a bubble.
package gazetteer
