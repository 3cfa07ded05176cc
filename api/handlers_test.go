package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syncops/recon-engine/notify"
	"github.com/syncops/recon-engine/scrape"
	"github.com/syncops/recon-engine/store/sqlite"
)

// fakeFetcher serves canned details without a browser.
type fakeFetcher struct {
	detail *scrape.Detail
	err    error
}

func (f *fakeFetcher) FetchDetail(_ context.Context, claimID string) (*scrape.Detail, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := *f.detail
	d.ReferenceID = claimID
	return &d, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h, err := NewHandler(store, zap.NewNop(),
		&fakeFetcher{detail: &scrape.Detail{ActionStatus: "Device Dispatched"}},
		notify.NewMailer("", 0, "", "", ""))
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(h, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv, h
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func uploadCSV(t *testing.T, srv *httptest.Server, side, csv string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/datasets/"+side, "text/csv", strings.NewReader(csv))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const testClaimsCSV = `ReferenceID,CSR Status,Program Name,Service Type,Request Creation Date-time,Request Update Date-Time
CLM-1,Device Dispatched,SAMSUNG_B2C,Device Exchange,2026-03-10,2026-03-12
CLM-2,Device Dispatched,SAMSUNG_B2C,Device Exchange,2026-03-11,2026-03-12
CLM-3,Payment Pending,INLAND,Device Exchange,2026-03-12,2026-03-12
`

const testOrdersCSV = `CustomerPO,Delivery Status,Order No
CLM-1,On the Way,ORD-1
`

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadDataset(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := uploadCSV(t, srv, "claims", testClaimsCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[UploadResponse](t, resp)
	assert.Equal(t, 3, body.Records)
	assert.Equal(t, "ReferenceID", body.Roles.ClaimID)
	assert.Equal(t, "CSR Status", body.Roles.Status)
	assert.Equal(t, "Program Name", body.Roles.Program)
}

func TestUploadDataset_InvalidSide(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := uploadCSV(t, srv, "sideways", testClaimsCSV)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRolesRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadCSV(t, srv, "claims", testClaimsCSV)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/datasets/claims/roles",
		RolesRequest{ClaimID: "ReferenceID", Status: "Service Type"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/api/datasets/claims/roles")
	require.NoError(t, err)
	defer resp.Body.Close()
	roles := decode[RolesRequest](t, resp)
	assert.Equal(t, "Service Type", roles.Status)
}

func TestPutRoles_RejectsUnknownColumn(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadCSV(t, srv, "claims", testClaimsCSV)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/datasets/claims/roles",
		RolesRequest{ClaimID: "Nope", Status: "CSR Status"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReconcileFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadCSV(t, srv, "claims", testClaimsCSV)
	uploadCSV(t, srv, "fulfillment", testOrdersCSV)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reconcile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[ReconcileResponse](t, resp)
	assert.NotEmpty(t, body.RunID)
	// CLM-1's order is found, CLM-2 has no order (rule demands one),
	// CLM-3 expects no order and counts toward neither total
	assert.Equal(t, 3, body.Result.Summary.TotalRecords)
	assert.Equal(t, 1, body.Result.Summary.TotalMatched)
	assert.Equal(t, 1, body.Result.Summary.InterfaceFailures)
	require.Len(t, body.Result.InterfaceFailures["SAMSUNG_B2C"], 1)

	// The run was recorded
	resp, err := http.Get(srv.URL + "/api/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	runs := decode[RunsResponse](t, resp)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, body.RunID, runs.Runs[0].ID)
}

func TestReconcile_RequiresBothDatasets(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadCSV(t, srv, "claims", testClaimsCSV)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reconcile", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMonitor(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadCSV(t, srv, "claims", testClaimsCSV)
	uploadCSV(t, srv, "fulfillment", testOrdersCSV)

	resp, err := http.Get(srv.URL + "/api/monitor?window=all")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var board struct {
		Buckets map[string]map[string][]struct {
			ClaimID string `json:"claimId"`
		} `json:"buckets"`
		Stats map[string]struct {
			Total int `json:"total"`
		} `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	// CLM-2 is an interface failure work item; CLM-1 matched
	require.Len(t, board.Buckets["interface-failure"]["Samsung B2C"], 1)
	assert.Equal(t, "CLM-2", board.Buckets["interface-failure"]["Samsung B2C"][0].ClaimID)
	assert.Equal(t, 2, board.Stats["Samsung B2C"].Total)
}

func TestMonitor_BadWindow(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadCSV(t, srv, "claims", testClaimsCSV)
	uploadCSV(t, srv, "fulfillment", testOrdersCSV)

	resp, err := http.Get(srv.URL + "/api/monitor?window=fortnight")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMonitorExport(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadCSV(t, srv, "claims", testClaimsCSV)
	uploadCSV(t, srv, "fulfillment", testOrdersCSV)

	resp, err := http.Get(srv.URL + "/api/monitor/export?window=all&phase=interface-failure")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "CLM-2")
}

func TestRulesCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	// Working table starts from the default preset
	resp, err := http.Get(srv.URL + "/api/rules")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Set a rule
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/rules/backordered",
		RuleUpdateRequest{Expected: "On the Way, Picked Up"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Rename it
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rules/backordered/rename",
		RenameRequest{NewStatus: "back ordered"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Renaming onto an existing key conflicts
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rules/back ordered/rename",
		RenameRequest{NewStatus: "payment pending"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Delete it
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/rules/back ordered", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Deleting again is a 404
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Mutations landed in the audit trail
	resp, err = http.Get(srv.URL + "/api/activity")
	require.NoError(t, err)
	defer resp.Body.Close()
	activity := decode[ActivityResponse](t, resp)
	require.NotEmpty(t, activity.Activity)
	assert.Contains(t, activity.Activity[0].Action, "delete rule")
}

func TestRulesImportExport(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/rules/import",
		map[string][]string{"backordered": {"on the way"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/api/rules/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	exported := decode[map[string][]string](t, resp)
	assert.Equal(t, []string{"on the way"}, exported["backordered"])
	// Preset rules survive the merge
	assert.Contains(t, exported, "device dispatched")
}

func TestRulesImport_RejectsInvalid(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/rules/import",
		map[string]any{"a": nil})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRulesResetAndPresets(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/rules/reset",
		ResetRulesRequest{Preset: "generic-lifecycle"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rules := decode[struct {
		Version string `json:"version"`
	}](t, resp)
	assert.Equal(t, "generic-lifecycle", rules.Version)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rules/reset",
		ResetRulesRequest{Preset: "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRulesSaveAndLoad(t *testing.T) {
	srv, _ := newTestServer(t)

	// Mutate, save, reset, load back
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/rules/backordered",
		RuleUpdateRequest{Expected: "on the way"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rules/save",
		SaveRulesRequest{Name: "with-backorder"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rules/reset", ResetRulesRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rules/sets/with-backorder/load", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/api/rules/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	exported := decode[map[string][]string](t, resp)
	assert.Contains(t, exported, "backordered")

	// Listing shows the stored set
	resp, err = http.Get(srv.URL + "/api/rules/sets")
	require.NoError(t, err)
	defer resp.Body.Close()
	sets := decode[[]map[string]any](t, resp)
	require.Len(t, sets, 1)
	assert.Equal(t, "with-backorder", sets[0]["name"])

	// Loading a missing set is a 404
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rules/sets/missing/load", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClaimDetail(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/claims/CLM-77/detail")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	detail := decode[scrape.Detail](t, resp)
	assert.Equal(t, "CLM-77", detail.ReferenceID)
	assert.Equal(t, "Device Dispatched", detail.ActionStatus)
}

func TestClaimDetail_NotFound(t *testing.T) {
	srv, h := newTestServer(t)
	h.Fetcher = &fakeFetcher{err: &scrape.FetchError{RequestID: "r", ClaimID: "x", Err: scrape.ErrNotFound}}

	resp, err := http.Get(srv.URL + "/api/claims/CLM-0/detail")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSendDigest_MailerDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	uploadCSV(t, srv, "claims", testClaimsCSV)
	uploadCSV(t, srv, "fulfillment", testOrdersCSV)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/notify/digest?window=all",
		NotifyRequest{Phase: "interface-failure", To: []string{"ops@example.com"}})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLoadFixtures(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/fixtures/load", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The sample data reconciles end to end
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/reconcile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[ReconcileResponse](t, resp)
	assert.Equal(t, 5, body.Result.Summary.TotalRecords)
	assert.Equal(t, 1, body.Result.Summary.DuplicateOrders)
	// CLM-1001 and CLM-1002 both have orders in the index
	assert.Equal(t, 2, body.Result.Summary.TotalMatched)
	// CLM-1002 is authorized but already delivered: status mismatch
	assert.Equal(t, 1, body.Result.Summary.StatusMismatches)
	// CLM-1003 has no order: interface failure
	assert.Equal(t, 1, body.Result.Summary.InterfaceFailures)
}
