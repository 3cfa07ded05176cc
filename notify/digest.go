/*
Package notify sends triage digests by email.

PURPOSE:
  Fulfillment teams that never open the dashboard still get the
  work list: an HTML digest of one triage bucket, grouped by
  business unit, sent on demand or from the CLI.

SEE ALSO:
  - mailer.go: SMTP delivery
  - monitor:   Source of the claims
*/
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"github.com/syncops/recon-engine/monitor"
)

// Digest is one renderable email.
type Digest struct {
	Title    string
	Subtitle string
	Summary  DigestSummary
	Groups   []UnitGroup
}

// DigestSummary is the header counters.
type DigestSummary struct {
	TotalClaims  int
	TotalUnits   int
	TheftAndLoss int
}

// UnitGroup is one business unit's table.
type UnitGroup struct {
	Unit   string
	Claims []monitor.TriageClaim
}

// NewDigest builds a digest from a phase bucket (unit -> claims).
// Units render sorted; claims within a unit sort by claim ID so
// repeated digests diff cleanly.
func NewDigest(title, subtitle string, byUnit map[string][]monitor.TriageClaim) *Digest {
	d := &Digest{Title: title, Subtitle: subtitle}
	units := make([]string, 0, len(byUnit))
	for u := range byUnit {
		units = append(units, u)
	}
	sort.Strings(units)

	for _, u := range units {
		claims := append([]monitor.TriageClaim(nil), byUnit[u]...)
		sort.Slice(claims, func(i, j int) bool { return claims[i].ClaimID < claims[j].ClaimID })
		d.Groups = append(d.Groups, UnitGroup{Unit: u, Claims: claims})
		d.Summary.TotalClaims += len(claims)
		for _, c := range claims {
			if c.ClaimType == monitor.TypeTheftAndLoss {
				d.Summary.TheftAndLoss++
			}
		}
	}
	d.Summary.TotalUnits = len(units)
	return d
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"age": func(days int) string {
		if days < 0 {
			return "-"
		}
		return fmt.Sprintf("%d", days)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; color: #333; max-width: 1200px; margin: 0 auto; padding: 20px;">
  <div style="background: #4f46e5; padding: 24px; border-radius: 8px 8px 0 0; text-align: center;">
    <h1 style="color: white; margin: 0; font-size: 24px;">{{.Title}}</h1>
    <p style="color: rgba(255,255,255,0.9); margin: 8px 0 0 0; font-size: 14px;">{{.Subtitle}}</p>
  </div>
  <div style="background: white; padding: 15px 20px; border-left: 4px solid #4f46e5; margin-bottom: 15px;">
    <strong>Summary:</strong>
    {{.Summary.TotalClaims}} claims across {{.Summary.TotalUnits}} business units,
    {{.Summary.TheftAndLoss}} theft &amp; loss
  </div>
{{range .Groups}}
  <div style="margin-bottom: 30px;">
    <h3 style="color: #1f2937; border-bottom: 2px solid #4f46e5; padding-bottom: 8px;">{{.Unit}} ({{len .Claims}} claims)</h3>
    <table style="width: 100%; border-collapse: collapse; font-size: 13px;">
      <thead>
        <tr style="background-color: #4f46e5; color: white;">
          <th style="padding: 8px; text-align: left;">Claim ID</th>
          <th style="padding: 8px; text-align: left;">Program</th>
          <th style="padding: 8px; text-align: center;">Type</th>
          <th style="padding: 8px; text-align: left;">Status</th>
          <th style="padding: 8px; text-align: left;">Delivery</th>
          <th style="padding: 8px; text-align: center;">Created</th>
          <th style="padding: 8px; text-align: center;">Age</th>
        </tr>
      </thead>
      <tbody>
{{range .Claims}}
        <tr>
          <td style="padding: 8px; border: 1px solid #e5e7eb;"><strong>{{.ClaimID}}</strong></td>
          <td style="padding: 8px; border: 1px solid #e5e7eb;">{{.Program}}</td>
          <td style="padding: 8px; border: 1px solid #e5e7eb; text-align: center;">{{.ClaimType}}</td>
          <td style="padding: 8px; border: 1px solid #e5e7eb;">{{.Status}}</td>
          <td style="padding: 8px; border: 1px solid #e5e7eb;">{{.DeliveryStatus}}</td>
          <td style="padding: 8px; border: 1px solid #e5e7eb; text-align: center;">{{.CreatedDate}}</td>
          <td style="padding: 8px; border: 1px solid #e5e7eb; text-align: center;">{{age .DaysSinceCreated}}</td>
        </tr>
{{end}}
      </tbody>
    </table>
  </div>
{{end}}
</body>
</html>`))

// Render produces the HTML body.
func (d *Digest) Render() (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}
