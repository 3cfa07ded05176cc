/*
Package ingest turns export files into flat record sets.

PURPOSE:
  The engine is format-agnostic; this package owns the one format
  currently supported, CSV. The first row is the header; short data
  rows are padded and long rows truncated to the header width, since
  real exports produce both.

MULTI-FILE LOADS:
  Operators often upload a week of daily exports at once. Files
  concatenate in load order, which preserves last-write-wins
  semantics downstream: an order row in a later file supersedes the
  same claim's row in an earlier file.

SEE ALSO:
  - recon/record.go: Output shape
*/
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/syncops/recon-engine/recon"
)

// ReadCSV parses one CSV stream into a record set.
func ReadCSV(r io.Reader) (*recon.RecordSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return &recon.RecordSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	set := &recon.RecordSet{Columns: columns}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(set.Records)+2, err)
		}
		rec := make(recon.FlatRecord, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		set.Records = append(set.Records, rec)
	}
	return set, nil
}

// ReadFiles loads and concatenates CSV files in argument order. All
// files must share a compatible header; the first file's column
// order wins for the combined set, and columns new in later files
// are appended.
func ReadFiles(paths ...string) (*recon.RecordSet, error) {
	combined := &recon.RecordSet{}
	seen := map[string]bool{}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		set, err := ReadCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, col := range set.Columns {
			if !seen[col] {
				seen[col] = true
				combined.Columns = append(combined.Columns, col)
			}
		}
		combined.Records = append(combined.Records, set.Records...)
	}
	return combined, nil
}
