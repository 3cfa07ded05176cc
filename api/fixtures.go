/*
fixtures.go - Sample dataset loader

PURPOSE:
  Loads a small built-in pair of exports so the dashboard can be
  demonstrated without real data. The sample covers every finding
  type: a clean match, a status mismatch, an interface failure, a
  no-order-expected claim, and a duplicate order row.
*/
package api

import (
	"net/http"
	"strings"

	"github.com/syncops/recon-engine/factory"
	"github.com/syncops/recon-engine/ingest"
	"github.com/syncops/recon-engine/recon"
)

const sampleClaimsCSV = `ReferenceID,CSR Status,Program Name,Service Type,Request Creation Date-time,Request Update Date-Time
CLM-1001,Device Dispatched,SAMSUNG_B2C,Device Exchange,2026-03-10 09:15:00,2026-03-12 14:00:00
CLM-1002,Replacement Authorized,SAMSUNG_B2C,Advance Exchange w/o Defective,2026-03-11 10:00:00,2026-03-11 10:30:00
CLM-1003,Device Dispatched,INLAND,Device Exchange,2026-03-12 08:45:00,2026-03-13 16:20:00
CLM-1004,Payment Pending,Business Protect Plan,Same-Day Replacement,2026-03-13 11:30:00,
CLM-1005,Service Completed,SAMSUNG_B2C,Device Exchange,2026-02-20 09:00:00,2026-03-01 10:00:00
`

const sampleOrdersCSV = `CustomerPO,Delivery Status,Order No,Project Number
CLM-1001,Picked Up,ORD-5001,SAMSUNG_B2C
CLM-1001,On the Way,ORD-5001,SAMSUNG_B2C
CLM-1002,Delivered,ORD-5002,SAMSUNG_B2C
`

// LoadFixtures replaces both datasets with the built-in sample.
// POST /api/fixtures/load
func (h *Handler) LoadFixtures(w http.ResponseWriter, r *http.Request) {
	claims, err := ingest.ReadCSV(strings.NewReader(sampleClaimsCSV))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sample claims", err)
		return
	}
	orders, err := ingest.ReadCSV(strings.NewReader(sampleOrdersCSV))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sample orders", err)
		return
	}

	claimRoles, err := recon.ResolveRoles(claims, recon.SideClaims, factory.DefaultClaimPatterns())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve sample roles", err)
		return
	}
	orderRoles, err := recon.ResolveRoles(orders, recon.SideFulfillment, factory.DefaultOrderPatterns())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve sample roles", err)
		return
	}

	h.session.setDataset(recon.SideClaims, claims, claimRoles)
	h.session.setDataset(recon.SideFulfillment, orders, orderRoles)

	writeJSON(w, http.StatusOK, map[string]any{
		"claims": claims.Len(),
		"orders": orders.Len(),
	})
}
