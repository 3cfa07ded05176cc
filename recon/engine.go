/*
engine.go - The reconciliation pass

PURPOSE:
  Joins the claims export against the fulfillment export by claim ID
  and produces findings:

    Interface failure:  an order should exist and does not. The
                        claim never made it across the interface.
    Status mismatch:    an order exists but its status contradicts
                        what the rule table allows for the claim's
                        status.

  An order is expected only when the claim status has a rule with a
  non-empty expected set. An explicitly empty set means no order is
  expected, and an unrecognized status is treated the same way, so
  a missing order raises nothing for either.

PIPELINE:
  1. BuildFulfillmentIndex: normalized claim ID -> order record,
     last-write-wins on duplicates (later export rows supersede
     earlier ones), blank IDs excluded.
  2. Reconcile: one pass over the claims, one index lookup each.
     Findings grouped by the claim's verbatim program value.

DETERMINISM:
  Same inputs, same Result. The pass holds no state between runs and
  mutates neither input.

SEE ALSO:
  - rules.go:   Mismatch semantics
  - record.go:  Input shapes
*/
package recon

import "github.com/shopspring/decimal"

// StatusNotFound is the order-side status recorded on an interface
// failure finding, where no order exists to read a status from.
const StatusNotFound = "Not Found"

// FailureType labels the direction of a finding.
type FailureType string

const (
	// FailureInterface marks a claim with no matching order.
	FailureInterface FailureType = "Interface failure to Goldie"

	// FailureStatusMismatch marks a claim whose order exists with a
	// contradictory status.
	FailureStatusMismatch FailureType = "Goldie to 360 failure"
)

// Finding is one reconciliation discrepancy. ClaimRecord is always
// set; OrderRecord is nil for interface failures.
type Finding struct {
	ClaimID      string      `json:"claimId"`
	ClaimStatus  string      `json:"claimStatus"`
	OrderStatus  string      `json:"orderStatus"`
	Type         FailureType `json:"type"`
	Program      string      `json:"program"`
	ClaimRecord  FlatRecord  `json:"claimRecord"`
	OrderRecord  FlatRecord  `json:"orderRecord,omitempty"`
}

// Summary carries the run totals.
type Summary struct {
	TotalRecords      int             `json:"totalRecords"`
	TotalMatched      int             `json:"totalMatched"`
	InterfaceFailures int             `json:"interfaceFailures"`
	StatusMismatches  int             `json:"statusMismatches"`
	DuplicateOrders   int             `json:"duplicateOrders"`
	BlankClaimIDs     int             `json:"blankClaimIds"`
	MatchRate         decimal.Decimal `json:"matchRate"`
}

// Result is the full output of one reconciliation pass. Findings
// are grouped by the claim-side program value exactly as it appears
// in the export ("" is a legal group).
type Result struct {
	InterfaceFailures map[string][]Finding `json:"interfaceFailures"`
	StatusMismatches  map[string][]Finding `json:"statusMismatches"`
	Summary           Summary              `json:"summary"`
}

// Index maps normalized claim IDs to their fulfillment record.
type Index map[string]FlatRecord

// BuildFulfillmentIndex folds the fulfillment export into a lookup
// keyed by normalized claim ID. Duplicates resolve last-write-wins
// and are counted; records with a blank claim ID are skipped.
func BuildFulfillmentIndex(set *RecordSet, roles Roles) (Index, int) {
	idx := make(Index, set.Len())
	duplicates := 0
	for _, rec := range set.Records {
		id := NormalizeClaimID(rec.Value(roles.ClaimID))
		if id == "" {
			continue
		}
		if _, seen := idx[id]; seen {
			duplicates++
		}
		idx[id] = rec
	}
	return idx, duplicates
}

// Reconcile runs the pass. claims and claimRoles describe the
// claims side; idx and orderStatusCol describe the indexed
// fulfillment side. duplicates is the count from
// BuildFulfillmentIndex, carried into the summary.
func Reconcile(claims *RecordSet, claimRoles Roles, idx Index, orderStatusCol string, rules *RuleTable, duplicates int) *Result {
	res := &Result{
		InterfaceFailures: map[string][]Finding{},
		StatusMismatches:  map[string][]Finding{},
	}
	res.Summary.TotalRecords = claims.Len()
	res.Summary.DuplicateOrders = duplicates

	for _, rec := range claims.Records {
		id := NormalizeClaimID(rec.Value(claimRoles.ClaimID))
		if id == "" {
			res.Summary.BlankClaimIDs++
		}
		claimStatus := rec.Value(claimRoles.Status)
		program := rec.Value(claimRoles.Program)

		order, found := idx[id]
		if !found {
			if rules.OrderExpected(claimStatus) {
				f := Finding{
					ClaimID:     id,
					ClaimStatus: claimStatus,
					OrderStatus: StatusNotFound,
					Type:        FailureInterface,
					Program:     program,
					ClaimRecord: rec,
				}
				res.InterfaceFailures[program] = append(res.InterfaceFailures[program], f)
				res.Summary.InterfaceFailures++
			}
			continue
		}

		// A found order counts as matched even when its status
		// contradicts the claim's.
		res.Summary.TotalMatched++
		orderStatus := order.Value(orderStatusCol)
		if rules.IsMismatch(claimStatus, orderStatus) {
			f := Finding{
				ClaimID:     id,
				ClaimStatus: claimStatus,
				OrderStatus: orderStatus,
				Type:        FailureStatusMismatch,
				Program:     program,
				ClaimRecord: rec,
				OrderRecord: order,
			}
			res.StatusMismatches[program] = append(res.StatusMismatches[program], f)
			res.Summary.StatusMismatches++
		}
	}

	res.Summary.MatchRate = matchRate(res.Summary.TotalMatched, res.Summary.TotalRecords)
	return res
}

// matchRate is matched/total as a percentage, two decimal places.
// Decimal arithmetic so report numbers do not drift with float
// rounding.
func matchRate(matched, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(matched)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
