/*
export.go - CSV export of triage buckets

PURPOSE:
  Operators hand triage lists to fulfillment teams as spreadsheets.
  The export is plain CSV with a fixed column set; consumers pivot
  it themselves.
*/
package monitor

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/syncops/recon-engine/recon"
)

var exportHeader = []string{
	"Claim ID", "Business Unit", "Claim Type", "Status",
	"Delivery Status", "Order Number", "Created", "Updated", "Age (days)",
}

// ExportCSV writes triage claims as CSV, header first.
func ExportCSV(w io.Writer, claims []TriageClaim) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, c := range claims {
		age := ""
		if c.DaysSinceCreated >= 0 {
			age = strconv.Itoa(c.DaysSinceCreated)
		}
		row := []string{
			c.ClaimID, c.BusinessUnit, c.ClaimType, c.Status,
			c.DeliveryStatus, c.OrderNumber, c.CreatedDate, c.UpdatedDate, age,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PhaseClaims flattens a phase bucket across units in unit order.
func (b *Board) PhaseClaims(phase recon.Phase) []TriageClaim {
	var out []TriageClaim
	bucket := b.Buckets[phase]
	for _, unit := range b.Units() {
		out = append(out, bucket[unit]...)
	}
	return out
}
