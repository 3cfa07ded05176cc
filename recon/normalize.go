/*
normalize.go - Canonical forms for status values and claim IDs

PURPOSE:
  The two exports disagree on casing and whitespace. All status
  comparison happens on the canonical lowercase form; claim IDs keep
  their case because some downstream systems are case-sensitive
  about them, but whitespace is never significant.

SEE ALSO:
  - rules.go: IsMismatch compares normalized statuses
  - engine.go: Index keys are normalized claim IDs
*/
package recon

import "strings"

// NormalizeStatus trims and lowercases a status value.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeClaimID trims a claim ID. Case is preserved.
func NormalizeClaimID(s string) string {
	return strings.TrimSpace(s)
}
