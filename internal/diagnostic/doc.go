// Package diagnostic provides structured warnings and errors collected while
// compiling mappings.
//
// Key capabilities:
//   - Unmapped destination field warnings
//   - Mapping file problems aggregated across all declarations
//   - Human-readable rendering keyed by type pair and field
package diagnostic
