/*
record.go - Flat record model shared by both export sides

PURPOSE:
  Defines the format-agnostic record shape the engine operates on.
  Ingestion (CSV today, anything tomorrow) produces RecordSets;
  the engine never sees file formats, only flat records and role
  bindings telling it which column plays which part.

ROLES:
  A role is a semantic slot (claim ID, status, program) bound to a
  concrete column name per dataset. The claims export and the
  fulfillment export each carry their own bindings because the two
  systems never agreed on column names.

SEE ALSO:
  - resolve.go: Automatic role-to-column resolution
  - engine.go: Consumes RecordSets + Roles
*/
package recon

// FlatRecord is one row of an export, keyed by column header.
// Values are kept as strings; normalization happens at comparison
// time, never at ingestion time.
type FlatRecord map[string]string

// RecordSet is an ordered collection of records plus the column
// order of the source. Record order matters: duplicate claim IDs
// on the fulfillment side resolve last-write-wins, so a later row
// in the set supersedes an earlier one.
type RecordSet struct {
	Columns []string
	Records []FlatRecord
}

// Len returns the number of records in the set.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Side identifies which export a record set came from.
type Side string

const (
	// SideClaims is the claims-system export (the system of record
	// for what customers were promised).
	SideClaims Side = "claims"

	// SideFulfillment is the fulfillment-system export (what the
	// warehouse actually did about it).
	SideFulfillment Side = "fulfillment"
)

// Roles binds semantic slots to concrete column names for one side.
// Program is only meaningful on the claims side; the fulfillment
// side leaves it empty.
type Roles struct {
	ClaimID string `json:"claimId"`
	Status  string `json:"status"`
	Program string `json:"program,omitempty"`
}

// Value reads a column from a record, returning "" for a missing
// column. Missing and empty are deliberately indistinguishable here;
// the engine treats both as absent data.
func (r FlatRecord) Value(column string) string {
	return r[column]
}
