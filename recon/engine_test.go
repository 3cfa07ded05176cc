package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	claimRoles = Roles{ClaimID: "ReferenceID", Status: "CSR Status", Program: "Program"}
	orderRoles = Roles{ClaimID: "CustomerPO", Status: "Delivery Status"}
)

func claimRow(id, status, program string) FlatRecord {
	return FlatRecord{"ReferenceID": id, "CSR Status": status, "Program": program}
}

func orderRow(id, status string) FlatRecord {
	return FlatRecord{"CustomerPO": id, "Delivery Status": status}
}

func runRecon(t *testing.T, claims, orders []FlatRecord, rules *RuleTable) *Result {
	t.Helper()
	claimSet := &RecordSet{Columns: []string{"ReferenceID", "CSR Status", "Program"}, Records: claims}
	orderSet := &RecordSet{Columns: []string{"CustomerPO", "Delivery Status"}, Records: orders}
	idx, dups := BuildFulfillmentIndex(orderSet, orderRoles)
	return Reconcile(claimSet, claimRoles, idx, orderRoles.Status, rules, dups)
}

func TestBuildFulfillmentIndex_LastWriteWinsAndCountsDuplicates(t *testing.T) {
	// GIVEN duplicate order rows for one claim
	set := &RecordSet{Records: []FlatRecord{
		orderRow("CLM-1", "Picked Up"),
		orderRow("CLM-2", "Delivered"),
		orderRow("CLM-1", "Delivered"),
		orderRow("  ", "Delivered"), // blank ID excluded
	}}

	idx, dups := BuildFulfillmentIndex(set, orderRoles)

	// THEN the later row wins and the duplicate is counted
	assert.Equal(t, 1, dups)
	assert.Len(t, idx, 2)
	assert.Equal(t, "Delivered", idx["CLM-1"].Value("Delivery Status"))
}

func TestReconcile_InterfaceFailure(t *testing.T) {
	// GIVEN a claim whose rule demands an order, and no order
	rules := NewRuleTableFrom(map[string][]string{
		"replacement authorized": {"picked up"},
	})
	res := runRecon(t,
		[]FlatRecord{claimRow("CLM-9", "Replacement Authorized", "SAMSUNG_B2C")},
		nil, rules)

	// THEN one interface failure under the verbatim program value
	require.Len(t, res.InterfaceFailures["SAMSUNG_B2C"], 1)
	f := res.InterfaceFailures["SAMSUNG_B2C"][0]
	assert.Equal(t, "CLM-9", f.ClaimID)
	assert.Equal(t, StatusNotFound, f.OrderStatus)
	assert.Equal(t, FailureInterface, f.Type)
	assert.Nil(t, f.OrderRecord)
	assert.Equal(t, 1, res.Summary.InterfaceFailures)
	assert.Equal(t, 0, res.Summary.TotalMatched)
}

func TestReconcile_NoOrderExpected(t *testing.T) {
	// GIVEN a claim status with an explicitly empty rule set
	rules := NewRuleTableFrom(map[string][]string{
		"payment pending": {},
	})
	res := runRecon(t,
		[]FlatRecord{claimRow("CLM-1", "Payment Pending", "X")},
		nil, rules)

	// THEN no finding at all; with no order found it does not count
	// as matched either
	assert.Empty(t, res.InterfaceFailures)
	assert.Empty(t, res.StatusMismatches)
	assert.Equal(t, 0, res.Summary.TotalMatched)
}

func TestReconcile_UnrecognizedStatusWithoutOrder(t *testing.T) {
	// GIVEN a claim status with no rule at all and no order
	res := runRecon(t,
		[]FlatRecord{claimRow("ABC123", "weird status", "P")},
		nil, NewRuleTable())

	// THEN the unrecognized status raises nothing
	assert.Empty(t, res.InterfaceFailures)
	assert.Empty(t, res.StatusMismatches)
	assert.Equal(t, 0, res.Summary.InterfaceFailures)
	assert.Equal(t, 0, res.Summary.TotalMatched)
}

func TestReconcile_StatusMismatch(t *testing.T) {
	rules := NewRuleTableFrom(map[string][]string{
		"replacement authorized": {"picked up", "on the way"},
	})
	res := runRecon(t,
		[]FlatRecord{claimRow("CLM-5", "Replacement Authorized", "RNO")},
		[]FlatRecord{orderRow("CLM-5", "Delivered")},
		rules)

	require.Len(t, res.StatusMismatches["RNO"], 1)
	f := res.StatusMismatches["RNO"][0]
	assert.Equal(t, FailureStatusMismatch, f.Type)
	assert.Equal(t, "Delivered", f.OrderStatus)
	assert.NotNil(t, f.OrderRecord)
}

func TestReconcile_MatchViaRuleMembership(t *testing.T) {
	rules := NewRuleTableFrom(map[string][]string{
		"replacement authorized": {"picked up", "on the way"},
	})
	res := runRecon(t,
		[]FlatRecord{claimRow("CLM-5", "Replacement Authorized", "RNO")},
		[]FlatRecord{orderRow("CLM-5", "ON THE WAY ")},
		rules)

	assert.Empty(t, res.StatusMismatches)
	assert.Equal(t, 1, res.Summary.TotalMatched)
	assert.Equal(t, "100", res.Summary.MatchRate.String())
}

func TestReconcile_ExactEqualityFallback(t *testing.T) {
	// GIVEN a status with no rule at all
	rules := NewRuleTable()
	res := runRecon(t,
		[]FlatRecord{
			claimRow("CLM-1", "Shipped", "A"),
			claimRow("CLM-2", "Shipped", "A"),
		},
		[]FlatRecord{
			orderRow("CLM-1", "shipped"),
			orderRow("CLM-2", "Delivered"),
		},
		rules)

	// THEN equality of normalized forms decides the finding; both
	// orders were found, so both claims count as matched
	assert.Equal(t, 2, res.Summary.TotalMatched)
	assert.Equal(t, 1, res.Summary.StatusMismatches)
}

func TestReconcile_MismatchedOrderStillCountsMatched(t *testing.T) {
	// GIVEN one claim whose found order contradicts the rule
	rules := NewRuleTableFrom(map[string][]string{
		"replacement authorized": {"picked up"},
	})
	res := runRecon(t,
		[]FlatRecord{claimRow("CLM-1", "Replacement Authorized", "A")},
		[]FlatRecord{orderRow("CLM-1", "Delivered")},
		rules)

	// THEN matched counts the index hit regardless of the mismatch
	assert.Equal(t, 1, res.Summary.TotalMatched)
	assert.Equal(t, 1, res.Summary.StatusMismatches)
	assert.Equal(t, "100", res.Summary.MatchRate.String())
}

func TestReconcile_GroupsByVerbatimProgram(t *testing.T) {
	rules := NewRuleTableFrom(map[string][]string{
		"shipped": {"delivered"},
	})
	res := runRecon(t,
		[]FlatRecord{
			claimRow("CLM-1", "Shipped", "Samsung_B2C"),
			claimRow("CLM-2", "Shipped", "SAMSUNG_B2C"),
			claimRow("CLM-3", "Shipped", ""),
		},
		nil, rules)

	// Program values are not normalized for grouping
	assert.Len(t, res.InterfaceFailures["Samsung_B2C"], 1)
	assert.Len(t, res.InterfaceFailures["SAMSUNG_B2C"], 1)
	assert.Len(t, res.InterfaceFailures[""], 1)
}

func TestReconcile_BlankClaimIDsCountedAndProcessed(t *testing.T) {
	rules := NewRuleTableFrom(map[string][]string{
		"shipped": {"delivered"},
	})
	res := runRecon(t,
		[]FlatRecord{claimRow("  ", "Shipped", "A")},
		[]FlatRecord{orderRow("CLM-1", "Shipped")},
		rules)

	assert.Equal(t, 1, res.Summary.BlankClaimIDs)
	// The blank claim cannot join the index, so it surfaces as an
	// interface failure keyed on ""
	require.Len(t, res.InterfaceFailures["A"], 1)
	assert.Equal(t, "", res.InterfaceFailures["A"][0].ClaimID)
}

func TestReconcile_Idempotent(t *testing.T) {
	rules := NewRuleTableFrom(map[string][]string{
		"replacement authorized": {"picked up"},
		"payment pending":        {},
	})
	claims := []FlatRecord{
		claimRow("CLM-1", "Replacement Authorized", "A"),
		claimRow("CLM-2", "Payment Pending", "A"),
		claimRow("CLM-3", "Replacement Authorized", "B"),
	}
	orders := []FlatRecord{
		orderRow("CLM-1", "Delivered"),
	}

	first := runRecon(t, claims, orders, rules)
	second := runRecon(t, claims, orders, rules)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.InterfaceFailures, second.InterfaceFailures)
	assert.Equal(t, first.StatusMismatches, second.StatusMismatches)
}

func TestReconcile_SummaryTotals(t *testing.T) {
	rules := NewRuleTableFrom(map[string][]string{
		"replacement authorized": {"picked up"},
	})
	res := runRecon(t,
		[]FlatRecord{
			claimRow("CLM-1", "Replacement Authorized", "A"), // matched
			claimRow("CLM-2", "Replacement Authorized", "A"), // mismatch, order found
			claimRow("CLM-3", "Replacement Authorized", "A"), // interface failure
			claimRow("CLM-4", "Replacement Authorized", "A"), // matched
		},
		[]FlatRecord{
			orderRow("CLM-1", "Picked Up"),
			orderRow("CLM-2", "Delivered"),
			orderRow("CLM-4", "Picked Up"),
			orderRow("CLM-4", "Picked Up"),
		},
		rules)

	assert.Equal(t, 4, res.Summary.TotalRecords)
	assert.Equal(t, 3, res.Summary.TotalMatched)
	assert.Equal(t, 1, res.Summary.InterfaceFailures)
	assert.Equal(t, 1, res.Summary.StatusMismatches)
	assert.Equal(t, 1, res.Summary.DuplicateOrders)
	assert.Equal(t, "75", res.Summary.MatchRate.String())
}
