/*
filter.go - Date windows and claim filtering

PURPOSE:
  The monitor shows a moving window of claims. The window threshold
  is computed against an injected "now" so the cut is testable and
  consistent within one refresh.

DATE SELECTION:
  A claim's effective date is its update date when parsable, else
  its creation date. Exports write dates in several formats; the
  loose parser accepts the ones seen in the wild and gives up
  quietly on the rest (an unparsable date fails the window check).

SEE ALSO:
  - categorize.go: Applies the filters while building the board
*/
package monitor

import (
	"fmt"
	"strings"
	"time"
)

// Window selects how far back the monitor looks.
type Window string

const (
	WindowToday  Window = "today"
	Window7Days  Window = "7days"
	Window30Days Window = "30days"
	WindowAll    Window = "all"
)

// ParseWindow validates a window name. Empty defaults to 7days.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowToday, Window7Days, Window30Days, WindowAll:
		return Window(s), nil
	case "":
		return Window7Days, nil
	}
	return "", fmt.Errorf("unknown window %q", s)
}

// Threshold returns the cutoff instant for the window. ok=false
// means no cutoff (WindowAll).
func (w Window) Threshold(now time.Time) (time.Time, bool) {
	switch w {
	case WindowToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case Window7Days:
		return now.Add(-7 * 24 * time.Hour), true
	case Window30Days:
		return now.Add(-30 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

// dateLayouts are the formats exports have been seen to use.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseDate parses an export date loosely. ok=false when nothing
// fits.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// effectiveDate picks the date a claim is filtered on: updated when
// parsable, else created.
func effectiveDate(created, updated string) (time.Time, bool) {
	if t, ok := ParseDate(updated); ok {
		return t, true
	}
	return ParseDate(created)
}

// daysSince is the whole days elapsed from t to now, floored.
// Negative elapsed time clamps to 0.
func daysSince(t time.Time, now time.Time) int {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
