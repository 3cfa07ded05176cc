package factory

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncops/recon-engine/recon"
)

func TestPresetsBuild(t *testing.T) {
	for _, name := range []string{"advance-exchange", "generic-lifecycle"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := ByName(name)
			require.NoError(t, err)

			tables, err := cfg.Build()
			require.NoError(t, err)
			assert.Equal(t, name, tables.Version)
			assert.Greater(t, tables.Rules.Len(), 10)
			assert.NotEmpty(t, tables.ReplacementStatuses)
		})
	}
}

func TestByName_DefaultAndUnknown(t *testing.T) {
	cfg, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, "advance-exchange", cfg.Version)

	_, err = ByName("nope")
	assert.Error(t, err)
}

func TestAdvanceExchange_Semantics(t *testing.T) {
	tables, err := AdvanceExchange().Build()
	require.NoError(t, err)

	// Pre-order statuses expect no order
	assert.False(t, tables.Rules.OrderExpected("payment pending"))
	// In-flight statuses do
	assert.True(t, tables.Rules.OrderExpected("device dispatched"))
	assert.False(t, tables.Rules.IsMismatch("device dispatched", "On the Way"))
	assert.True(t, tables.Rules.IsMismatch("device dispatched", "delivered"))

	// Every status lives in exactly one phase
	assert.Equal(t, recon.PhaseInterfaceFailure, tables.Categories.PhaseOf("replacement allocated"))
	assert.Equal(t, recon.PhaseShipmentException, tables.Categories.PhaseOf("replacement authorized"))
	assert.Equal(t, recon.PhaseCompleted, tables.Categories.PhaseOf("claim withdrawn"))
	assert.True(t, tables.Categories.IsEarlyStage("replacement shipment created"))
}

func TestLoad_RoundTrip(t *testing.T) {
	data, err := json.Marshal(AdvanceExchange())
	require.NoError(t, err)

	tables, err := Load(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, "advance-exchange", tables.Version)
}

func TestBuild_RejectsBadConfig(t *testing.T) {
	_, err := (&Config{Version: "x", Rules: map[string][]string{" ": {}}}).Build()
	assert.ErrorIs(t, err, recon.ErrInvalidRuleConfig)

	_, err = (&Config{Version: "x", Categories: map[string][]string{"no-such-phase": {"a"}}}).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown phase")
}

func TestDefaultPatterns_ResolveRealHeaders(t *testing.T) {
	claims := &recon.RecordSet{Columns: []string{"Row", "ReferenceID", "CSR Status", "Program Name", "Service Type"}}
	roles, err := recon.ResolveRoles(claims, recon.SideClaims, DefaultClaimPatterns())
	require.NoError(t, err)
	assert.Equal(t, "ReferenceID", roles.ClaimID)
	assert.Equal(t, "CSR Status", roles.Status)
	assert.Equal(t, "Program Name", roles.Program)

	orders := &recon.RecordSet{Columns: []string{"CustomerPO", "Delivery Status", "Order No"}}
	oroles, err := recon.ResolveRoles(orders, recon.SideFulfillment, DefaultOrderPatterns())
	require.NoError(t, err)
	assert.Equal(t, "CustomerPO", oroles.ClaimID)
	assert.Equal(t, "Delivery Status", oroles.Status)
}
