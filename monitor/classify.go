/*
classify.go - Business unit and claim type classification

PURPOSE:
  Maps free-text program names to business units and free-text
  service types to claim types. Both classifiers are ordered rule
  lists evaluated first-match-wins, so adding a program is a data
  change, not a new branch.

SEE ALSO:
  - categorize.go: Uses both classifiers per claim
*/
package monitor

import "strings"

// Well-known classification results.
const (
	UnitUnknown = "Unknown"
	UnitOther   = "Other"

	TypeTheftAndLoss = "Theft & Loss"
	TypeSameDay      = "Same-Day Replacement"
	TypeRegularAE    = "Regular AE"
	TypeUnknown      = "Unknown"
)

// UnitRule matches an uppercased program name. Contains terms must
// all appear; Exact terms match the whole name. A rule with neither
// never matches.
type UnitRule struct {
	Contains []string
	Exact    []string
	Result   string
}

func (r UnitRule) matches(programUpper string) bool {
	for _, e := range r.Exact {
		if programUpper == e {
			return true
		}
	}
	if len(r.Contains) == 0 {
		return false
	}
	for _, c := range r.Contains {
		if !strings.Contains(programUpper, c) {
			return false
		}
	}
	return true
}

// DefaultUnitRules is the shipped business unit mapping, most
// specific first.
var DefaultUnitRules = []UnitRule{
	{Contains: []string{"SAMSUNG_B2C"}, Result: "Samsung B2C"},
	{Contains: []string{"SERVIFY_SC_B2B"}, Result: "Samsung B2B"},
	{Contains: []string{"SAMSUNG", "B2B"}, Result: "Samsung B2B"},
	{Exact: []string{"APPALACHIAN", "THUMBCELLULAR", "INLAND"}, Result: "RNO"},
	{Contains: []string{"BUSINESS", "PROTECT"}, Result: "AT&T"},
}

// BusinessUnit classifies a program name. Empty input is Unknown;
// an unmatched name is Other.
func BusinessUnit(program string) string {
	return classifyUnit(program, DefaultUnitRules)
}

func classifyUnit(program string, rules []UnitRule) string {
	if strings.TrimSpace(program) == "" {
		return UnitUnknown
	}
	upper := strings.ToUpper(program)
	for _, r := range rules {
		if r.matches(upper) {
			return r.Result
		}
	}
	return UnitOther
}

// TypeRule matches a lowercased service type when any of its terms
// appears.
type TypeRule struct {
	AnyOf  []string
	Result string
}

// DefaultTypeRules is the shipped claim type mapping.
var DefaultTypeRules = []TypeRule{
	{AnyOf: []string{"w/o defective"}, Result: TypeTheftAndLoss},
	{AnyOf: []string{"same-day", "same day"}, Result: TypeSameDay},
	{AnyOf: []string{"device exchange"}, Result: TypeRegularAE},
}

// ClaimType classifies a service type. Anything unmatched is
// Unknown.
func ClaimType(serviceType string) string {
	lower := strings.ToLower(strings.TrimSpace(serviceType))
	if lower == "" {
		return TypeUnknown
	}
	for _, r := range DefaultTypeRules {
		for _, term := range r.AnyOf {
			if strings.Contains(lower, term) {
				return r.Result
			}
		}
	}
	return TypeUnknown
}
