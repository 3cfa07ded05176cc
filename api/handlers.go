/*
handlers.go - HTTP API handlers for the reconciliation engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Datasets:
    POST   /api/datasets/{side}        Upload a CSV export
    GET    /api/datasets/{side}/roles  Current role bindings
    PUT    /api/datasets/{side}/roles  Override role bindings

  Reconciliation:
    POST   /api/reconcile              Run the batch pass
    GET    /api/runs                   Run history

  Live monitor:
    GET    /api/monitor                Triage board
    GET    /api/monitor/export         One phase bucket as CSV

  Rules:
    GET    /api/rules                  Working rule table
    PUT    /api/rules/{status}         Set a rule
    POST   /api/rules/{status}/rename  Rename a rule key
    DELETE /api/rules/{status}         Delete a rule
    POST   /api/rules/import           Merge a JSON rule file
    GET    /api/rules/export           Rule table as JSON
    POST   /api/rules/reset            Reset to a preset
    POST   /api/rules/save             Persist as a named set
    GET    /api/rules/sets             Stored sets
    POST   /api/rules/sets/{name}/load Load a stored set

  Claims:
    GET    /api/claims/{id}/detail     Scraped portal detail

ARCHITECTURE:
  Handler struct holds all dependencies. Uploaded datasets and the
  working rule table are session state behind a mutex: one operator
  session per process, matching how the tool is actually operated.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (rename collision)
  - 422: Unprocessable configuration (unresolved roles)
  - 502: Portal failures
  - 500: Internal errors

SEE ALSO:
  - dto.go:     Request/response data structures
  - fixtures.go: Demo data loader
  - server.go:  Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncops/recon-engine/factory"
	"github.com/syncops/recon-engine/ingest"
	"github.com/syncops/recon-engine/monitor"
	"github.com/syncops/recon-engine/notify"
	"github.com/syncops/recon-engine/recon"
	"github.com/syncops/recon-engine/scrape"
	"github.com/syncops/recon-engine/store/sqlite"
)

// maxUploadBytes bounds one export upload.
const maxUploadBytes = 64 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Logger  *zap.Logger
	Fetcher scrape.Fetcher
	Mailer  *notify.Mailer

	session *session
}

// NewHandler creates a handler with the default preset loaded.
func NewHandler(store *sqlite.Store, logger *zap.Logger, fetcher scrape.Fetcher, mailer *notify.Mailer) (*Handler, error) {
	tables, err := factory.AdvanceExchange().Build()
	if err != nil {
		return nil, err
	}
	return &Handler{
		Store:   store,
		Logger:  logger,
		Fetcher: fetcher,
		Mailer:  mailer,
		session: newSession(tables),
	}, nil
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// DATASET ENDPOINTS
// =============================================================================

func sideParam(r *http.Request) (recon.Side, error) {
	switch side := recon.Side(chi.URLParam(r, "side")); side {
	case recon.SideClaims, recon.SideFulfillment:
		return side, nil
	default:
		return "", fmt.Errorf("unknown side %q", side)
	}
}

// UploadDataset ingests a CSV export and auto-resolves its roles.
// POST /api/datasets/{side}
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	side, err := sideParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid side", err)
		return
	}

	set, err := ingest.ReadCSV(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse CSV", err)
		return
	}

	patterns := factory.DefaultClaimPatterns()
	if side == recon.SideFulfillment {
		patterns = factory.DefaultOrderPatterns()
	}
	roles, err := recon.ResolveRoles(set, side, patterns)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "cannot resolve columns", err)
		return
	}

	h.session.setDataset(side, set, roles)
	h.Logger.Info("dataset uploaded",
		zap.String("side", string(side)),
		zap.Int("records", set.Len()),
		zap.Int("columns", len(set.Columns)))

	writeJSON(w, http.StatusOK, UploadResponse{
		Side:    side,
		Records: set.Len(),
		Columns: set.Columns,
		Roles:   roles,
	})
}

// GetRoles returns the current bindings for one side.
// GET /api/datasets/{side}/roles
func (h *Handler) GetRoles(w http.ResponseWriter, r *http.Request) {
	side, err := sideParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid side", err)
		return
	}
	_, roles, ok := h.session.dataset(side)
	if !ok {
		writeError(w, http.StatusNotFound, "no dataset uploaded", nil)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// PutRoles overrides the bindings for one side. Columns must exist
// in the uploaded dataset.
// PUT /api/datasets/{side}/roles
func (h *Handler) PutRoles(w http.ResponseWriter, r *http.Request) {
	side, err := sideParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid side", err)
		return
	}
	var req RolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	set, _, ok := h.session.dataset(side)
	if !ok {
		writeError(w, http.StatusNotFound, "no dataset uploaded", nil)
		return
	}
	roles := recon.Roles{ClaimID: req.ClaimID, Status: req.Status, Program: req.Program}
	for _, col := range []string{roles.ClaimID, roles.Status} {
		if col == "" || !hasColumn(set, col) {
			writeError(w, http.StatusBadRequest, "column not in dataset", fmt.Errorf("column %q", col))
			return
		}
	}
	if roles.Program != "" && !hasColumn(set, roles.Program) {
		writeError(w, http.StatusBadRequest, "column not in dataset", fmt.Errorf("column %q", roles.Program))
		return
	}
	h.session.setRoles(side, roles)
	writeJSON(w, http.StatusOK, roles)
}

func hasColumn(set *recon.RecordSet, col string) bool {
	for _, c := range set.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// =============================================================================
// RECONCILIATION ENDPOINTS
// =============================================================================

// Reconcile runs the batch pass over the uploaded datasets.
// POST /api/reconcile
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	claims, claimRoles, ok := h.session.dataset(recon.SideClaims)
	if !ok {
		writeError(w, http.StatusBadRequest, "claims dataset not uploaded", nil)
		return
	}
	orders, orderRoles, ok := h.session.dataset(recon.SideFulfillment)
	if !ok {
		writeError(w, http.StatusBadRequest, "fulfillment dataset not uploaded", nil)
		return
	}

	tables := h.session.tablesSnapshot()
	idx, dups := recon.BuildFulfillmentIndex(orders, orderRoles)
	result := recon.Reconcile(claims, claimRoles, idx, orderRoles.Status, tables.Rules, dups)

	run := sqlite.Run{
		ID:                uuid.NewString(),
		At:                time.Now(),
		RuleSet:           tables.Version,
		TotalRecords:      result.Summary.TotalRecords,
		TotalMatched:      result.Summary.TotalMatched,
		InterfaceFailures: result.Summary.InterfaceFailures,
		StatusMismatches:  result.Summary.StatusMismatches,
		DuplicateOrders:   result.Summary.DuplicateOrders,
		BlankClaimIDs:     result.Summary.BlankClaimIDs,
		MatchRate:         result.Summary.MatchRate.String(),
	}
	if err := h.Store.RecordRun(r.Context(), run); err != nil {
		// A run that cannot be recorded is still a valid result
		h.Logger.Warn("failed to record run", zap.Error(err))
	}

	h.Logger.Info("reconciliation complete",
		zap.String("run_id", run.ID),
		zap.Int("records", run.TotalRecords),
		zap.Int("interface_failures", run.InterfaceFailures),
		zap.Int("status_mismatches", run.StatusMismatches))

	writeJSON(w, http.StatusOK, ReconcileResponse{RunID: run.ID, Result: result})
}

// ListRuns returns recorded run history.
// GET /api/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", err)
		return
	}
	if runs == nil {
		runs = []sqlite.Run{}
	}
	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

// =============================================================================
// LIVE MONITOR ENDPOINTS
// =============================================================================

func (h *Handler) buildBoard(r *http.Request) (*monitor.Board, *factory.Tables, error) {
	claims, claimRoles, ok := h.session.dataset(recon.SideClaims)
	if !ok {
		return nil, nil, errors.New("claims dataset not uploaded")
	}
	orders, orderRoles, ok := h.session.dataset(recon.SideFulfillment)
	if !ok {
		return nil, nil, errors.New("fulfillment dataset not uploaded")
	}
	window, err := monitor.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		return nil, nil, err
	}
	tables := h.session.tablesSnapshot()
	board := monitor.Build(monitor.Input{
		Claims:     claims,
		ClaimRoles: claimRoles,
		Orders:     orders,
		OrderRoles: orderRoles,
	}, tables.Categories, monitor.Options{
		Window:       window,
		BusinessUnit: r.URL.Query().Get("unit"),
		ClaimType:    r.URL.Query().Get("type"),
	})
	return board, tables, nil
}

// Monitor returns the triage board.
// GET /api/monitor?window=7days&unit=all&type=all
func (h *Handler) Monitor(w http.ResponseWriter, r *http.Request) {
	board, _, err := h.buildBoard(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot build monitor", err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// MonitorExport streams one phase bucket as CSV.
// GET /api/monitor/export?phase=shipment-exception
func (h *Handler) MonitorExport(w http.ResponseWriter, r *http.Request) {
	board, _, err := h.buildBoard(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot build monitor", err)
		return
	}
	phase := recon.Phase(r.URL.Query().Get("phase"))
	claims := board.PhaseClaims(phase)
	if claims == nil {
		claims = []monitor.TriageClaim{}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", string(phase)+"-claims.csv"))
	if err := monitor.ExportCSV(w, claims); err != nil {
		h.Logger.Warn("csv export truncated", zap.Error(err))
	}
}

// =============================================================================
// RULE TABLE ENDPOINTS
// =============================================================================

// GetRules returns the working rule table.
// GET /api/rules
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	tables := h.session.tablesSnapshot()
	writeJSON(w, http.StatusOK, RulesDTO{Version: tables.Version, Rules: tables.Rules})
}

// PutRule sets one rule from a comma-separated list.
// PUT /api/rules/{status}
func (h *Handler) PutRule(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	var req RuleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	old := h.session.expectedString(status)
	if err := h.session.mutateRules(func(t *recon.RuleTable) error {
		return t.Set(status, req.Expected)
	}); err != nil {
		writeRuleError(w, err)
		return
	}
	h.audit(r, "update rule "+recon.NormalizeStatus(status), old, req.Expected)
	h.GetRules(w, r)
}

// RenameRule renames a rule key, preserving its values.
// POST /api/rules/{status}/rename
func (h *Handler) RenameRule(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.session.mutateRules(func(t *recon.RuleTable) error {
		return t.Rename(status, req.NewStatus)
	}); err != nil {
		writeRuleError(w, err)
		return
	}
	h.audit(r, "rename rule", status, req.NewStatus)
	h.GetRules(w, r)
}

// DeleteRule removes a rule.
// DELETE /api/rules/{status}
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	old := h.session.expectedString(status)
	if err := h.session.mutateRules(func(t *recon.RuleTable) error {
		return t.Delete(status)
	}); err != nil {
		writeRuleError(w, err)
		return
	}
	h.audit(r, "delete rule "+recon.NormalizeStatus(status), old, "")
	writeJSON(w, http.StatusOK, map[string]string{"deleted": recon.NormalizeStatus(status)})
}

// ImportRules merges a JSON rule object into the working table.
// POST /api/rules/import
func (h *Handler) ImportRules(w http.ResponseWriter, r *http.Request) {
	var incoming recon.RuleTable
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeRuleError(w, err)
		return
	}
	if err := h.session.mutateRules(func(t *recon.RuleTable) error {
		t.Merge(&incoming)
		return nil
	}); err != nil {
		writeRuleError(w, err)
		return
	}
	h.audit(r, "import rules", "", fmt.Sprintf("%d rules", incoming.Len()))
	h.GetRules(w, r)
}

// ExportRules returns the rule table as a plain JSON object.
// GET /api/rules/export
func (h *Handler) ExportRules(w http.ResponseWriter, r *http.Request) {
	tables := h.session.tablesSnapshot()
	w.Header().Set("Content-Disposition", `attachment; filename="business-rules.json"`)
	writeJSON(w, http.StatusOK, tables.Rules)
}

// ResetRules replaces the working tables with a preset.
// POST /api/rules/reset
func (h *Handler) ResetRules(w http.ResponseWriter, r *http.Request) {
	var req ResetRulesRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}
	cfg, err := factory.ByName(req.Preset)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown preset", err)
		return
	}
	tables, err := cfg.Build()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "preset failed to build", err)
		return
	}
	h.session.replaceTables(tables)
	h.audit(r, "reset rules", "", tables.Version)
	h.GetRules(w, r)
}

// SaveRules persists the working configuration under a name.
// POST /api/rules/save
func (h *Handler) SaveRules(w http.ResponseWriter, r *http.Request) {
	var req SaveRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "a name is required", err)
		return
	}
	cfg := h.session.configSnapshot()
	data, err := json.Marshal(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to serialize rules", err)
		return
	}
	if err := h.Store.SaveRuleSet(r.Context(), req.Name, cfg.Version, string(data)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save rule set", err)
		return
	}
	h.audit(r, "save rule set "+req.Name, "", cfg.Version)
	writeJSON(w, http.StatusOK, map[string]string{"saved": req.Name})
}

// ListRuleSets lists stored configurations.
// GET /api/rules/sets
func (h *Handler) ListRuleSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.Store.ListRuleSets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rule sets", err)
		return
	}
	if sets == nil {
		sets = []sqlite.RuleSet{}
	}
	writeJSON(w, http.StatusOK, sets)
}

// LoadRuleSet replaces the working tables with a stored set.
// POST /api/rules/sets/{name}/load
func (h *Handler) LoadRuleSet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rs, err := h.Store.LoadRuleSet(r.Context(), name)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "rule set not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load rule set", err)
		return
	}
	var cfg factory.Config
	if err := json.Unmarshal([]byte(rs.ConfigJSON), &cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "stored rule set is corrupt", err)
		return
	}
	tables, err := cfg.Build()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stored rule set failed to build", err)
		return
	}
	h.session.replaceTables(tables)
	h.audit(r, "load rule set "+name, "", tables.Version)
	h.GetRules(w, r)
}

// ListActivity returns the rule audit trail.
// GET /api/activity
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.RecentActivity(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read activity", err)
		return
	}
	if entries == nil {
		entries = []sqlite.Activity{}
	}
	writeJSON(w, http.StatusOK, ActivityResponse{Activity: entries})
}

// =============================================================================
// CLAIM DETAIL ENDPOINT
// =============================================================================

// ClaimDetail fetches scraped portal detail for one claim.
// GET /api/claims/{id}/detail
func (h *Handler) ClaimDetail(w http.ResponseWriter, r *http.Request) {
	if h.Fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, "portal scraping not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	detail, err := h.Fetcher.FetchDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, scrape.ErrNotFound) {
			writeError(w, http.StatusNotFound, "claim not found in portal", err)
			return
		}
		writeError(w, http.StatusBadGateway, "portal fetch failed", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// =============================================================================
// NOTIFY ENDPOINT
// =============================================================================

// SendDigest emails one triage phase bucket.
// POST /api/notify/digest
func (h *Handler) SendDigest(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	board, _, err := h.buildBoard(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot build digest", err)
		return
	}
	bucket := board.Buckets[recon.Phase(req.Phase)]
	if bucket == nil {
		writeError(w, http.StatusBadRequest, "unknown phase", fmt.Errorf("phase %q", req.Phase))
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Claims triage: %s", req.Phase)
	}
	digest := notify.NewDigest("Claims Triage Digest", subject, bucket)
	if err := h.Mailer.SendDigest(r.Context(), req.To, subject, digest); err != nil {
		if errors.Is(err, notify.ErrMailerDisabled) {
			writeError(w, http.StatusServiceUnavailable, "email delivery not configured", err)
			return
		}
		writeError(w, http.StatusBadGateway, "failed to send digest", err)
		return
	}
	writeJSON(w, http.StatusOK, NotifyResponse{Sent: true, Claims: digest.Summary.TotalClaims})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) audit(r *http.Request, action, oldValue, newValue string) {
	if err := h.Store.AppendActivity(r.Context(), action, oldValue, newValue); err != nil {
		h.Logger.Warn("failed to record activity", zap.Error(err))
	}
}

func writeRuleError(w http.ResponseWriter, err error) {
	switch {
	case recon.IsNotFound(err):
		writeError(w, http.StatusNotFound, "rule not found", err)
	case errors.Is(err, recon.ErrRuleKeyCollision):
		writeError(w, http.StatusConflict, "rule key already exists", err)
	case recon.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid rule", err)
	default:
		writeError(w, http.StatusInternalServerError, "rule update failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
