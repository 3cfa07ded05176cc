/*
rules.go - Status rule table

PURPOSE:
  Maps a claim-side status to the set of fulfillment-side statuses
  considered consistent with it. The table is the single source of
  truth for mismatch decisions; the engine itself knows nothing
  about any particular status vocabulary.

SEMANTICS (the two look similar but are opposites):
  Empty set:    "no order is expected for this claim status".
                A missing order is fine; a present order is judged
                by membership against the empty set, i.e. always a
                mismatch.
  Missing key:  "we have no opinion". Falls back to exact equality
                of the normalized statuses, and a missing order IS
                a failure.

MUTATIONS:
  Set/Rename/Delete back the rule editor. All keys are stored
  normalized (lowercase, trimmed) and compared case-insensitively.
  Value sets survive a rename untouched.

SEE ALSO:
  - engine.go:          Consumes Expected/IsMismatch
  - factory/presets.go: Shipped rule sets
*/
package recon

import (
	"encoding/json"
	"sort"
	"strings"
)

// RuleTable maps a normalized claim status to the set of acceptable
// normalized fulfillment statuses. Values are always non-nil; an
// empty slice is meaningful (see the package comment).
type RuleTable struct {
	rules map[string][]string
}

// NewRuleTable creates an empty table.
func NewRuleTable() *RuleTable {
	return &RuleTable{rules: map[string][]string{}}
}

// NewRuleTableFrom builds a table from a raw map, normalizing keys
// and values. Nil value slices become empty slices. Keys that
// normalize to the same string collide; last one wins, matching
// JSON-object semantics.
func NewRuleTableFrom(raw map[string][]string) *RuleTable {
	t := NewRuleTable()
	for k, vs := range raw {
		key := NormalizeStatus(k)
		if key == "" {
			continue
		}
		t.rules[key] = normalizeSet(vs)
	}
	return t
}

func normalizeSet(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		n := NormalizeStatus(v)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Expected returns the acceptable fulfillment statuses for a claim
// status. ok=false means the status has no rule and exact-equality
// fallback applies.
func (t *RuleTable) Expected(claimStatus string) ([]string, bool) {
	vs, ok := t.rules[NormalizeStatus(claimStatus)]
	return vs, ok
}

// OrderExpected reports whether an order should exist for the claim
// status. Only a known rule with a non-empty expected set says yes;
// an unrecognized status is treated conservatively as no.
func (t *RuleTable) OrderExpected(claimStatus string) bool {
	vs, ok := t.Expected(claimStatus)
	return ok && len(vs) > 0
}

// IsMismatch decides whether a found order's status contradicts the
// claim's status. Both inputs are raw; normalization happens here.
func (t *RuleTable) IsMismatch(claimStatus, orderStatus string) bool {
	cs := NormalizeStatus(claimStatus)
	os := NormalizeStatus(orderStatus)

	expected, ok := t.rules[cs]
	if !ok {
		return cs != os
	}
	for _, e := range expected {
		if e == os {
			return false
		}
	}
	return true
}

// Set creates or replaces a rule. The value is a comma-separated
// list; entries are trimmed, lowercased, and empties dropped, so
// "A, B,," stores ["a","b"] and "" stores the empty set.
func (t *RuleTable) Set(claimStatus, commaList string) error {
	key := NormalizeStatus(claimStatus)
	if key == "" {
		return ErrEmptyRuleKey
	}
	parts := strings.Split(commaList, ",")
	t.rules[key] = normalizeSet(parts)
	return nil
}

// Rename changes a rule's key, preserving its value set. Rejects an
// empty new key and a collision with any other existing key.
func (t *RuleTable) Rename(oldStatus, newStatus string) error {
	oldKey := NormalizeStatus(oldStatus)
	newKey := NormalizeStatus(newStatus)
	if newKey == "" {
		return ErrEmptyRuleKey
	}
	vs, ok := t.rules[oldKey]
	if !ok {
		return ErrRuleNotFound
	}
	if newKey == oldKey {
		return nil
	}
	if _, exists := t.rules[newKey]; exists {
		return ErrRuleKeyCollision
	}
	delete(t.rules, oldKey)
	t.rules[newKey] = vs
	return nil
}

// Delete removes a rule.
func (t *RuleTable) Delete(claimStatus string) error {
	key := NormalizeStatus(claimStatus)
	if _, ok := t.rules[key]; !ok {
		return ErrRuleNotFound
	}
	delete(t.rules, key)
	return nil
}

// Merge overlays another table onto this one. Incoming keys
// overwrite; keys only present here survive. This is the import
// semantic: partial rule files extend the working set.
func (t *RuleTable) Merge(other *RuleTable) {
	for k, vs := range other.rules {
		t.rules[k] = append([]string(nil), vs...)
	}
}

// Clone returns a deep copy.
func (t *RuleTable) Clone() *RuleTable {
	c := NewRuleTable()
	for k, vs := range t.rules {
		c.rules[k] = append([]string(nil), vs...)
	}
	return c
}

// Len returns the number of rules.
func (t *RuleTable) Len() int {
	return len(t.rules)
}

// Keys returns the rule keys in sorted order.
func (t *RuleTable) Keys() []string {
	keys := make([]string, 0, len(t.rules))
	for k := range t.rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks a raw imported map before it is turned into a
// table: no empty keys, no case-insensitive duplicate keys, no nil
// value sets.
func ValidateRules(raw map[string][]string) error {
	seen := map[string]string{}
	for k, vs := range raw {
		key := NormalizeStatus(k)
		if key == "" {
			return &RuleConfigError{Key: k, Reason: "empty status key"}
		}
		if prev, dup := seen[key]; dup {
			return &RuleConfigError{Key: k, Reason: "duplicates key " + prev + " (keys are case-insensitive)"}
		}
		seen[key] = k
		if vs == nil {
			return &RuleConfigError{Key: k, Reason: "value must be a list (use an empty list for no-order-expected)"}
		}
	}
	return nil
}

// Map returns the table as a plain status->list map, deep-copied.
func (t *RuleTable) Map() map[string][]string {
	out := make(map[string][]string, len(t.rules))
	for k, vs := range t.rules {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// MarshalJSON renders the table as a plain status->list object, the
// interchange format for rule import/export.
func (t *RuleTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.rules)
}

// UnmarshalJSON parses the interchange format, validating first.
func (t *RuleTable) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &RuleConfigError{Reason: err.Error()}
	}
	if err := ValidateRules(raw); err != nil {
		return err
	}
	*t = *NewRuleTableFrom(raw)
	return nil
}
