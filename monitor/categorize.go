/*
categorize.go - The live triage board

PURPOSE:
  Builds the operational view: every in-window claim assigned to a
  lifecycle phase, bucketed per business unit, with per-unit stats.
  Four phases surface as triage tabs; completed and unknown claims
  only feed the counters.

MATCHED BOOKKEEPING:
  A claim counts as matched when its phase is Completed or Unknown
  and an order exists, or when its phase is InterfaceFailure and an
  order exists (the order arriving is exactly what that phase was
  waiting on). Claims in other phases are work items either way.

DELIVERY STATUS:
  When an order exists its delivery text comes from the bound
  status column, falling back through the column aliases different
  report versions use. An order with no text at all reads "Pending
  Shipment"; no order reads "Not Found". "State" is never a
  fallback: it holds US states in these exports.

SEE ALSO:
  - classify.go, filter.go: Per-claim inputs
  - recon/categories.go:    Phase assignment
*/
package monitor

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/syncops/recon-engine/recon"
)

// Delivery status values synthesized when the export has none.
const (
	DeliveryNotFound        = "Not Found"
	DeliveryPendingShipment = "Pending Shipment"
)

// deliveryStatusFallbacks are tried in order when the bound status
// column is empty.
var deliveryStatusFallbacks = []string{
	"Delivery Status", "delivery status", "DELIVERY STATUS",
	"DeliveryStatus", "deliverystatus",
	"Fulfillment Status", "fulfillment status",
	"Order Status", "order status",
	"Status", "status",
}

// orderNumberFallbacks locate the order number in the fulfillment
// record.
var orderNumberFallbacks = []string{
	"Order No", "order no", "OrderNo", "Order Number", "order number",
}

// Options filter the board. Zero values mean: 7-day window, all
// units, all claim types, wall-clock now.
type Options struct {
	Window       Window
	BusinessUnit string
	ClaimType    string
	Now          time.Time
}

// TriageClaim is one work item on the board.
type TriageClaim struct {
	ClaimID          string      `json:"claimId"`
	Program          string      `json:"program"`
	BusinessUnit     string      `json:"businessUnit"`
	ServiceType      string      `json:"serviceType"`
	ClaimType        string      `json:"claimType"`
	Status           string      `json:"status"`
	Phase            recon.Phase `json:"phase"`
	CreatedDate      string      `json:"createdDate"`
	UpdatedDate      string      `json:"updatedDate"`
	DaysSinceCreated int         `json:"daysSinceCreated"`
	HasOrder         bool        `json:"hasOrder"`
	OrderNumber      string      `json:"orderNumber"`
	DeliveryStatus   string      `json:"deliveryStatus"`
	DeliveryMismatch bool        `json:"deliveryMismatch"`
}

// UnitStats aggregates one business unit.
type UnitStats struct {
	Total             int             `json:"total"`
	Matched           int             `json:"matched"`
	InterfaceFailures int             `json:"interfaceFailures"`
	TheftAndLoss      int             `json:"theftAndLoss"`
	RegularAE         int             `json:"regularAE"`
	SameDay           int             `json:"sameDay"`
	MatchRate         decimal.Decimal `json:"matchRate"`
}

// Board is the built monitor view.
type Board struct {
	Window  Window                                 `json:"window"`
	Buckets map[recon.Phase]map[string][]TriageClaim `json:"buckets"`
	Stats   map[string]*UnitStats                  `json:"stats"`
}

// Input bundles the two datasets with their role bindings.
type Input struct {
	Claims     *recon.RecordSet
	ClaimRoles recon.Roles
	Orders     *recon.RecordSet
	OrderRoles recon.Roles
}

// Build constructs the triage board.
func Build(in Input, categories *recon.CategoryTable, opts Options) *Board {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Window == "" {
		opts.Window = Window7Days
	}

	board := &Board{
		Window:  opts.Window,
		Buckets: map[recon.Phase]map[string][]TriageClaim{},
		Stats:   map[string]*UnitStats{},
	}
	for _, phase := range recon.TriagePhases {
		board.Buckets[phase] = map[string][]TriageClaim{}
	}

	idx, _ := recon.BuildFulfillmentIndex(in.Orders, in.OrderRoles)
	serviceTypeCol, createdCol, updatedCol := detectExtraColumns(in.Claims.Columns)
	threshold, hasThreshold := opts.Window.Threshold(opts.Now)

	for _, rec := range in.Claims.Records {
		claimID := recon.NormalizeClaimID(rec.Value(in.ClaimRoles.ClaimID))
		status := rec.Value(in.ClaimRoles.Status)
		program := rec.Value(in.ClaimRoles.Program)
		serviceType := rec.Value(serviceTypeCol)
		created := rec.Value(createdCol)
		updated := rec.Value(updatedCol)

		unit := BusinessUnit(program)
		claimType := ClaimType(serviceType)

		if opts.BusinessUnit != "" && opts.BusinessUnit != "all" && unit != opts.BusinessUnit {
			continue
		}
		if opts.ClaimType != "" && opts.ClaimType != "all" && claimType != opts.ClaimType {
			continue
		}
		if hasThreshold {
			date, ok := effectiveDate(created, updated)
			if !ok || date.Before(threshold) {
				continue
			}
		}

		stats := board.Stats[unit]
		if stats == nil {
			stats = &UnitStats{}
			board.Stats[unit] = stats
		}
		stats.Total++
		switch claimType {
		case TypeTheftAndLoss:
			stats.TheftAndLoss++
		case TypeSameDay:
			stats.SameDay++
		default:
			stats.RegularAE++
		}

		order, hasOrder := idx[claimID]
		phase := categories.PhaseOf(status)

		if phase == recon.PhaseCompleted || phase == recon.PhaseUnknown {
			if hasOrder {
				stats.Matched++
			}
			continue
		}
		if phase == recon.PhaseInterfaceFailure && hasOrder {
			stats.Matched++
			continue
		}

		tc := TriageClaim{
			ClaimID:          claimID,
			Program:          program,
			BusinessUnit:     unit,
			ServiceType:      serviceType,
			ClaimType:        claimType,
			Status:           status,
			Phase:            phase,
			CreatedDate:      created,
			UpdatedDate:      updated,
			DaysSinceCreated: -1,
			HasOrder:         hasOrder,
			DeliveryStatus:   deliveryStatus(order, hasOrder, in.OrderRoles.Status),
		}
		if t, ok := ParseDate(created); ok {
			tc.DaysSinceCreated = daysSince(t, opts.Now)
		}
		if hasOrder {
			tc.OrderNumber = firstNonEmpty(order, orderNumberFallbacks)
		}
		tc.DeliveryMismatch = IsDeliveryMismatch(categories, status, tc.DeliveryStatus)

		if phase == recon.PhaseInterfaceFailure {
			stats.InterfaceFailures++
		}
		board.Buckets[phase][unit] = append(board.Buckets[phase][unit], tc)
	}

	for _, stats := range board.Stats {
		stats.MatchRate = unitMatchRate(stats.Matched, stats.Total)
	}
	return board
}

// IsDeliveryMismatch flags an early-stage claim whose shipment text
// already says delivered. The claim system thinks the replacement
// has barely started moving; the carrier disagrees.
func IsDeliveryMismatch(categories *recon.CategoryTable, claimStatus, deliveryStatus string) bool {
	return categories.IsEarlyStage(claimStatus) &&
		strings.Contains(strings.ToLower(deliveryStatus), "delivered")
}

func deliveryStatus(order recon.FlatRecord, hasOrder bool, statusCol string) string {
	if !hasOrder {
		return DeliveryNotFound
	}
	if v := strings.TrimSpace(order.Value(statusCol)); v != "" {
		return v
	}
	if v := firstNonEmpty(order, deliveryStatusFallbacks); v != "" {
		return v
	}
	return DeliveryPendingShipment
}

func firstNonEmpty(rec recon.FlatRecord, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(rec.Value(k)); v != "" {
			return v
		}
	}
	return ""
}

// detectExtraColumns finds the claim-side columns the monitor needs
// beyond the bound roles: service type, creation date, update date.
func detectExtraColumns(columns []string) (serviceType, created, updated string) {
	serviceType = findByTokens(columns, "service", "type")
	created = findByTokens(columns, "creation", "date")
	updated = findByTokens(columns, "update", "date")
	return
}

func findByTokens(columns []string, tokens ...string) string {
	p := recon.Pattern(tokens)
	for _, col := range columns {
		if p.Matches(col) {
			return col
		}
	}
	return ""
}

// SplitShipmentExceptions divides a shipment exception bucket into
// claims still in the replacement request stage versus everything
// else. replacementStatuses holds the normalized statuses of the
// request stage.
func SplitShipmentExceptions(claims []TriageClaim, replacementStatuses []string) (replacement, other []TriageClaim) {
	set := map[string]bool{}
	for _, s := range replacementStatuses {
		set[recon.NormalizeStatus(s)] = true
	}
	for _, c := range claims {
		if set[recon.NormalizeStatus(c.Status)] {
			replacement = append(replacement, c)
		} else {
			other = append(other, c)
		}
	}
	return replacement, other
}

// Units returns the business units present on the board, sorted.
func (b *Board) Units() []string {
	units := make([]string, 0, len(b.Stats))
	for u := range b.Stats {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

// TabCount is the number of claims in a phase across all units.
func (b *Board) TabCount(phase recon.Phase) int {
	n := 0
	for _, claims := range b.Buckets[phase] {
		n += len(claims)
	}
	return n
}

func unitMatchRate(matched, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(matched)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
