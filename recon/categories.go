/*
categories.go - Lifecycle phase table for triage

PURPOSE:
  Assigns every known claim status to exactly one lifecycle phase.
  The live monitor buckets claims by phase; statuses the table has
  never heard of land in PhaseUnknown rather than being dropped.

  EarlyStage is a separate overlay set, not a phase: a claim can be
  in ShipmentException AND early-stage at the same time. It marks
  statuses where a "delivered" shipment text is contradictory.

SEE ALSO:
  - monitor/categorize.go: Consumer
  - factory/presets.go:    Shipped category sets
*/
package recon

import "sort"

// Phase is a lifecycle bucket for triage.
type Phase string

const (
	PhasePreProcessing     Phase = "pre-processing"
	PhaseInterfaceFailure  Phase = "interface-failure"
	PhaseShipmentException Phase = "shipment-exception"
	PhaseReturnException   Phase = "return-exception"
	PhaseCompleted         Phase = "completed"
	PhaseUnknown           Phase = "unknown"
)

// TriagePhases are the phases the monitor surfaces as tabs, in
// display order. Completed and Unknown claims are counted but not
// tabbed.
var TriagePhases = []Phase{
	PhaseInterfaceFailure,
	PhaseShipmentException,
	PhaseReturnException,
	PhasePreProcessing,
}

// CategoryTable maps normalized statuses to phases plus the
// early-stage overlay.
type CategoryTable struct {
	phases     map[string]Phase
	earlyStage map[string]bool
}

// NewCategoryTable builds a table from per-phase status lists and
// the early-stage set. A status listed under two phases keeps the
// first assignment; phases are applied in TriagePhases order then
// Completed, so the table is deterministic regardless of map order
// in the input.
func NewCategoryTable(byPhase map[Phase][]string, earlyStage []string) *CategoryTable {
	t := &CategoryTable{
		phases:     map[string]Phase{},
		earlyStage: map[string]bool{},
	}
	order := append(append([]Phase{}, TriagePhases...), PhaseCompleted)
	for _, phase := range order {
		for _, s := range byPhase[phase] {
			key := NormalizeStatus(s)
			if key == "" {
				continue
			}
			if _, taken := t.phases[key]; !taken {
				t.phases[key] = phase
			}
		}
	}
	for _, s := range earlyStage {
		if key := NormalizeStatus(s); key != "" {
			t.earlyStage[key] = true
		}
	}
	return t
}

// PhaseOf returns the phase for a raw status. Unlisted statuses are
// PhaseUnknown.
func (t *CategoryTable) PhaseOf(status string) Phase {
	if p, ok := t.phases[NormalizeStatus(status)]; ok {
		return p
	}
	return PhaseUnknown
}

// IsEarlyStage reports whether the status is in the early-stage
// overlay set.
func (t *CategoryTable) IsEarlyStage(status string) bool {
	return t.earlyStage[NormalizeStatus(status)]
}

// Statuses returns the statuses assigned to a phase, sorted.
func (t *CategoryTable) Statuses(phase Phase) []string {
	var out []string
	for s, p := range t.phases {
		if p == phase {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// EarlyStatuses returns the early-stage overlay set, sorted.
func (t *CategoryTable) EarlyStatuses() []string {
	out := make([]string, 0, len(t.earlyStage))
	for s := range t.earlyStage {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
