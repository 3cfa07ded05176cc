/*
resolve.go - Ranked-pattern column resolution

PURPOSE:
  Export headers drift between report versions ("ReferenceID",
  "Reference ID", "Claim Reference Id", ...). Instead of hardcoding
  one header per role, each role carries an ordered list of patterns
  ranked from most to least specific, and the resolver picks the
  first column any pattern accepts.

MATCHING:
  A single-term pattern matches any column containing the term.
  A multi-term pattern matches a column containing ALL terms in any
  order. All matching is case-insensitive on both sides.

FALLBACK:
  When no pattern matches a non-empty dataset, the first column is
  used so the operator can correct the binding by hand. An empty
  dataset cannot fall back to anything, so an unresolved role there
  is a configuration error.

SEE ALSO:
  - record.go: Roles definition
  - factory/presets.go: The shipped pattern lists
*/
package recon

import "strings"

// Pattern is one ranked candidate for a column name. One term means
// substring match; several terms mean every term must appear.
type Pattern []string

// Matches reports whether the column satisfies the pattern.
// Comparison is case-insensitive.
func (p Pattern) Matches(column string) bool {
	if len(p) == 0 {
		return false
	}
	lc := strings.ToLower(column)
	for _, term := range p {
		if !strings.Contains(lc, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// ResolveColumn finds the first column accepted by the first
// matching pattern. Patterns are tried in order; within a pattern,
// columns are tried in source order. Returns ok=false when nothing
// matches.
func ResolveColumn(columns []string, patterns []Pattern) (string, bool) {
	for _, p := range patterns {
		for _, col := range columns {
			if p.Matches(col) {
				return col, true
			}
		}
	}
	return "", false
}

// RolePatterns carries the ranked pattern lists for one side.
type RolePatterns struct {
	ClaimID []Pattern
	Status  []Pattern
	Program []Pattern
}

// ResolveRoles binds every role for one side. A role whose patterns
// all miss falls back to the first column of a non-empty set. On an
// empty set the miss is fatal and reported as a *RoleError, since no
// fallback column exists and the operator has nothing to correct.
func ResolveRoles(set *RecordSet, side Side, patterns RolePatterns) (Roles, error) {
	var roles Roles
	var err error

	if roles.ClaimID, err = resolveRole(set, side, "claimId", patterns.ClaimID); err != nil {
		return Roles{}, err
	}
	if roles.Status, err = resolveRole(set, side, "status", patterns.Status); err != nil {
		return Roles{}, err
	}
	if len(patterns.Program) > 0 {
		if roles.Program, err = resolveRole(set, side, "program", patterns.Program); err != nil {
			return Roles{}, err
		}
	}
	return roles, nil
}

func resolveRole(set *RecordSet, side Side, role string, patterns []Pattern) (string, error) {
	if col, ok := ResolveColumn(set.Columns, patterns); ok {
		return col, nil
	}
	if len(set.Columns) == 0 {
		return "", &RoleError{Side: side, Role: role, Patterns: patterns}
	}
	return set.Columns[0], nil
}
