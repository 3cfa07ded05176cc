package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRuleSets_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRuleSet(ctx, "production", "advance-exchange", `{"rules":{}}`))

	rs, err := store.LoadRuleSet(ctx, "production")
	require.NoError(t, err)
	assert.Equal(t, "advance-exchange", rs.Version)
	assert.Equal(t, `{"rules":{}}`, rs.ConfigJSON)
	assert.False(t, rs.CreatedAt.IsZero())

	// Upsert replaces content, keeps the name
	require.NoError(t, store.SaveRuleSet(ctx, "production", "generic-lifecycle", `{"rules":{"a":[]}}`))
	rs, err = store.LoadRuleSet(ctx, "production")
	require.NoError(t, err)
	assert.Equal(t, "generic-lifecycle", rs.Version)

	list, err := store.ListRuleSets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRuleSets_NotFoundAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LoadRuleSet(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveRuleSet(ctx, "x", "v", "{}"))
	require.NoError(t, store.DeleteRuleSet(ctx, "x"))
	assert.ErrorIs(t, store.DeleteRuleSet(ctx, "x"), ErrNotFound)
}

func TestActivityLog_NewestFirstCapped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 105; i++ {
		require.NoError(t, store.AppendActivity(ctx,
			fmt.Sprintf("update rule %d", i), "old", "new"))
	}

	entries, err := store.RecentActivity(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 100)
	assert.Equal(t, "update rule 104", entries[0].Action)
	assert.Equal(t, "update rule 5", entries[99].Action)
}

func TestRuns_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:                uuid.NewString(),
		At:                time.Now(),
		RuleSet:           "advance-exchange",
		TotalRecords:      100,
		TotalMatched:      90,
		InterfaceFailures: 6,
		StatusMismatches:  4,
		DuplicateOrders:   2,
		BlankClaimIDs:     1,
		MatchRate:         "90",
	}
	require.NoError(t, store.RecordRun(ctx, run))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 90, runs[0].TotalMatched)
	assert.Equal(t, "90", runs[0].MatchRate)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRuleSet(ctx, "x", "v", "{}"))
	require.NoError(t, store.AppendActivity(ctx, "a", "", ""))
	require.NoError(t, store.Reset(ctx))

	list, err := store.ListRuleSets(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	entries, err := store.RecentActivity(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
