package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cmdbar/internal/tracker"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

func newDemo(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(DemoWorld(testNow))
	m.Now = func() time.Time { return testNow }
	return m
}

func ids(items []tracker.Item) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestAccessibleItemsRespectCollectionAccess(t *testing.T) {
	m := newDemo(t)

	assert.Equal(t, []int{1, 2, 3, 4}, ids(m.AccessibleItems("kevin")))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(m.AccessibleItems("david")))

	_, ok := m.AccessibleItem("kevin", 5)
	assert.False(t, ok)
	_, ok = m.AccessibleItem("david", 5)
	assert.True(t, ok)
}

func TestFilterItems(t *testing.T) {
	m := newDemo(t)

	tests := []struct {
		name   string
		filter tracker.Filter
		want   []int
	}{
		{"latest by default", tracker.Filter{}, []int{2, 1, 3, 4}},
		{"newest", tracker.Filter{IndexedBy: tracker.IndexNewest}, []int{3, 2, 1, 4}},
		{"assignee", tracker.Filter{AssigneeIDs: []string{"jz"}}, []int{1, 3}},
		{"unassigned", tracker.Filter{AssignmentStatus: tracker.AssignmentUnassigned}, []int{2, 4}},
		{"tag", tracker.Filter{TagIDs: []string{"design"}}, []int{2, 1}},
		{"terms", tracker.Filter{Terms: []string{"MOBILE"}}, []int{2}},
		{"item ids", tracker.Filter{ItemIDs: []int{3, 4}}, []int{3, 4}},
		{"stage", tracker.Filter{StageIDs: []string{"triage-new"}}, []int{1, 3}},
		{"stalled", tracker.Filter{IndexedBy: tracker.IndexStalled}, []int{4}},
		{"created this month", tracker.Filter{Creation: "thismonth"}, []int{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(m.FilterItems("kevin", tt.filter, 0))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterItems mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Len(t, m.FilterItems("kevin", tracker.Filter{}, 2), 2)
}

func TestSearchItems(t *testing.T) {
	m := newDemo(t)
	assert.Equal(t, []int{2}, ids(m.SearchItems("kevin", "layout mobile", 0)))
	assert.Empty(t, m.SearchItems("kevin", "planning", 0))
	assert.Empty(t, m.SearchItems("kevin", "   ", 0))
}

func TestStageMoveAndRestoreKeepsPerItemPriorStage(t *testing.T) {
	m := newDemo(t)
	ctx := context.Background()

	prior, err := m.MoveToStage(ctx, []int{1, 2, 4}, "triage-qa")
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "triage-new", 2: "triage-progress", 4: "triage-qa"}, prior)

	require.NoError(t, m.RestoreStages(ctx, prior))
	for id, stage := range prior {
		item, _ := m.Item(id)
		assert.Equal(t, stage, item.StageID)
	}
}

func TestAssignReturnsOnlyNewAssignments(t *testing.T) {
	m := newDemo(t)
	ctx := context.Background()

	added, err := m.Assign(ctx, []int{1, 2}, []string{"jz"})
	require.NoError(t, err)
	assert.Equal(t, []tracker.Assignment{{ItemID: 2, PersonID: "jz"}}, added)

	require.NoError(t, m.Unassign(ctx, added))
	item, _ := m.Item(2)
	assert.Empty(t, item.AssigneeIDs)
	item, _ = m.Item(1)
	assert.Equal(t, []string{"jz"}, item.AssigneeIDs)

	_, err = m.Assign(ctx, []int{1}, []string{"nobody"})
	assert.Error(t, err)
}

func TestTagItemsCreatesMissingTag(t *testing.T) {
	m := newDemo(t)
	ctx := context.Background()

	tag, added, err := m.TagItems(ctx, []int{1, 2}, "#Design")
	require.NoError(t, err)
	assert.Equal(t, "design", tag.ID)
	assert.Empty(t, added)

	tag, added, err = m.TagItems(ctx, []int{1, 2}, "launch")
	require.NoError(t, err)
	assert.NotEmpty(t, tag.ID)
	assert.Equal(t, []int{1, 2}, added)

	require.NoError(t, m.Untag(ctx, tag.ID, added))
	item, _ := m.Item(1)
	assert.False(t, item.TaggedWith(tag.ID))
}

func TestCloseAndReopen(t *testing.T) {
	m := newDemo(t)
	ctx := context.Background()

	closed, err := m.Close(ctx, "kevin", []int{1, 2}, "done")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, closed)

	again, err := m.Close(ctx, "kevin", []int{1, 3}, "")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, again)

	assert.Equal(t, []int{3, 2, 1}, ids(m.FilterItems("kevin", tracker.Filter{CloserIDs: []string{"kevin"}, IndexedBy: tracker.IndexNewest}, 0)))

	reopened, err := m.Reopen(ctx, []int{1, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, reopened)
}

func TestAtomicallyRollsBack(t *testing.T) {
	m := newDemo(t)
	ctx := context.Background()
	before := m.Snapshot()

	boom := errors.New("boom")
	err := m.Atomically(ctx, func(ctx context.Context) error {
		if _, err := m.Close(ctx, "kevin", []int{1, 2}, ""); err != nil {
			return err
		}
		if _, err := m.CreateItem(ctx, "kevin", "writebook", "Draft"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	if diff := cmp.Diff(before, m.Snapshot()); diff != "" {
		t.Errorf("world changed after rollback (-before +after):\n%s", diff)
	}
}

func TestCreateItem(t *testing.T) {
	m := newDemo(t)

	item, err := m.CreateItem(context.Background(), "kevin", "writebook", " Fix login ")
	require.NoError(t, err)
	assert.Equal(t, 6, item.ID)
	assert.Equal(t, "Fix login", item.Title)
	assert.Equal(t, tracker.StatusDrafted, item.Status)

	_, err = m.CreateItem(context.Background(), "kevin", "missing", "x")
	assert.Error(t, err)
}

func TestSeedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed", "world.yaml")
	w := DemoWorld(testNow)

	require.NoError(t, SaveSeed(path, w))
	loaded, err := LoadSeed(path)
	require.NoError(t, err)

	if diff := cmp.Diff(w, loaded); diff != "" {
		t.Errorf("seed mismatch (-want +got):\n%s", diff)
	}

	_, err = LoadSeed(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
