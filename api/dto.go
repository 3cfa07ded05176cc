/*
dto.go - Request and response shapes for the HTTP API

PURPOSE:
  Keeps wire shapes separate from domain types. Domain structs that
  already serialize cleanly (recon.Result, monitor.Board) go out
  as-is; everything else gets a DTO here.

SEE ALSO:
  - handlers.go: Producers and consumers of these types
*/
package api

import (
	"github.com/syncops/recon-engine/recon"
	"github.com/syncops/recon-engine/store/sqlite"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// UploadResponse confirms an export upload and reports the
// auto-resolved role bindings.
type UploadResponse struct {
	Side    recon.Side  `json:"side"`
	Records int         `json:"records"`
	Columns []string    `json:"columns"`
	Roles   recon.Roles `json:"roles"`
}

// RolesRequest overrides the role bindings for one side.
type RolesRequest struct {
	ClaimID string `json:"claimId"`
	Status  string `json:"status"`
	Program string `json:"program,omitempty"`
}

// RuleUpdateRequest sets one rule's expected statuses as a
// comma-separated list.
type RuleUpdateRequest struct {
	Expected string `json:"expected"`
}

// RenameRequest renames a rule key.
type RenameRequest struct {
	NewStatus string `json:"newStatus"`
}

// ResetRulesRequest selects a preset to reset to.
type ResetRulesRequest struct {
	Preset string `json:"preset,omitempty"`
}

// SaveRulesRequest names the stored rule set.
type SaveRulesRequest struct {
	Name string `json:"name"`
}

// RulesDTO is the working rule table plus its provenance.
type RulesDTO struct {
	Version string           `json:"version"`
	Rules   *recon.RuleTable `json:"rules"`
}

// ReconcileResponse wraps a run result with its recorded ID.
type ReconcileResponse struct {
	RunID  string        `json:"runId"`
	Result *recon.Result `json:"result"`
}

// RunsResponse lists recorded runs.
type RunsResponse struct {
	Runs []sqlite.Run `json:"runs"`
}

// ActivityResponse lists audit entries.
type ActivityResponse struct {
	Activity []sqlite.Activity `json:"activity"`
}

// NotifyRequest sends a digest for one triage phase.
type NotifyRequest struct {
	Phase   string   `json:"phase"`
	To      []string `json:"to"`
	Subject string   `json:"subject,omitempty"`
}

// NotifyResponse confirms delivery.
type NotifyResponse struct {
	Sent   bool `json:"sent"`
	Claims int  `json:"claims"`
}
