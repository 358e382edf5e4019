package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"cmdbar/internal/routing"
	"cmdbar/internal/store"
	"cmdbar/internal/tracker"
	"cmdbar/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []store.HistoryEntry
}

func (r *memRecorder) Record(_ context.Context, e store.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func newTestExecutor(m *store.Memory) (*Executor, *memRecorder) {
	rec := &memRecorder{}
	exec := NewExecutor(m, rec)
	exec.Now = func() time.Time { return testNow }
	return exec, rec
}

func mustParse(t *testing.T, line string, vctx *view.Context) Command {
	t.Helper()
	cmd, decision := ParseGrammar(line, vctx)
	require.Equal(t, DecisionMatched, decision, line)
	return cmd
}

func item(t *testing.T, m *store.Memory, id int) tracker.Item {
	t.Helper()
	it, ok := m.Item(id)
	require.True(t, ok, "item %d", id)
	return it
}

func TestRunSingleItemNeedsNoConfirmation(t *testing.T) {
	m := demo(t)
	exec, rec := newTestExecutor(m)

	out, err := exec.Run(context.Background(), mustParse(t, "/close", viewAt(m, "/items/2")), false)
	require.NoError(t, err)
	assert.False(t, out.Pending)
	assert.Equal(t, "Close 1 item", out.Message)
	assert.True(t, item(t, m, 2).Closed)

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, "kevin", entry.ActorID)
	assert.Equal(t, "/close", entry.Line)
	assert.Equal(t, string(KindClose), entry.Kind)
	assert.Equal(t, "Close 1 item", entry.Message)
	assert.True(t, entry.CreatedAt.Equal(testNow))
}

func TestRunBulkWaitsForConfirmation(t *testing.T) {
	m := demo(t)
	exec, rec := newTestExecutor(m)
	ctx := context.Background()
	cmd := mustParse(t, "/close", viewAt(m, "/items"))

	out, err := exec.Run(ctx, cmd, false)
	require.NoError(t, err)
	assert.True(t, out.Pending)
	assert.Equal(t, "Close 4 items", out.Confirmation)
	for _, id := range []int{1, 2, 3, 4} {
		assert.False(t, item(t, m, id).Closed)
	}
	assert.Empty(t, rec.entries)

	out, err = exec.Run(ctx, cmd, true)
	require.NoError(t, err)
	assert.False(t, out.Pending)
	for _, id := range []int{1, 2, 3, 4} {
		assert.True(t, item(t, m, id).Closed)
	}

	_, err = exec.Undo(ctx, cmd)
	require.NoError(t, err)
	for _, id := range []int{1, 2, 3, 4} {
		assert.False(t, item(t, m, id).Closed)
	}
}

func TestStageUndoRestoresMixedStages(t *testing.T) {
	m := demo(t)
	exec, _ := newTestExecutor(m)
	ctx := context.Background()

	cmd := &Stage{StageID: "triage-qa", bulk: bulk{ItemIDs: []int{1, 2, 3}}}
	stamp(cmd, viewAt(m, "/items"), "/stage qa")
	assert.Equal(t, "Move 3 items to QA review", cmd.Confirmation())

	_, err := exec.Run(ctx, cmd, true)
	require.NoError(t, err)
	for _, id := range []int{1, 2, 3} {
		assert.Equal(t, "triage-qa", item(t, m, id).StageID)
	}

	res, err := exec.Undo(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, "Undo: Move 3 items to QA review", res.Message)
	assert.Equal(t, "triage-new", item(t, m, 1).StageID)
	assert.Equal(t, "triage-progress", item(t, m, 2).StageID)
	assert.Equal(t, "triage-new", item(t, m, 3).StageID)
}

func TestUndoRevertsOnlyWhatChanged(t *testing.T) {
	m := demo(t)
	exec, _ := newTestExecutor(m)
	ctx := context.Background()

	assign := mustParse(t, "/assign kevin", viewAt(m, "/items?assignee_ids[]=jz"))
	_, err := exec.Run(ctx, assign, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"jz", "kevin"}, item(t, m, 1).AssigneeIDs)
	_, err = exec.Undo(ctx, assign)
	require.NoError(t, err)
	assert.Equal(t, []string{"jz"}, item(t, m, 1).AssigneeIDs)
	assert.Equal(t, []string{"jz"}, item(t, m, 3).AssigneeIDs)

	tag := mustParse(t, "/tag release", viewAt(m, "/items/2"))
	_, err = exec.Run(ctx, tag, false)
	require.NoError(t, err)
	tagID := tag.(*Tag).tagID
	require.NotEmpty(t, tagID)
	assert.True(t, item(t, m, 2).TaggedWith(tagID))
	_, err = exec.Undo(ctx, tag)
	require.NoError(t, err)
	assert.False(t, item(t, m, 2).TaggedWith(tagID))
	assert.True(t, item(t, m, 2).TaggedWith("design"))

	do := mustParse(t, "/do", viewAt(m, "/items/2"))
	_, err = exec.Run(ctx, do, false)
	require.NoError(t, err)
	assert.Equal(t, tracker.EngagementDoing, item(t, m, 2).Engagement)
	_, err = exec.Undo(ctx, do)
	require.NoError(t, err)
	assert.Empty(t, item(t, m, 2).Engagement)
}

func TestRunRollsBackFailedCommand(t *testing.T) {
	m := demo(t)
	exec, rec := newTestExecutor(m)
	vctx := viewAt(m, "/items/2")

	composite := &Composite{
		TitleText: "close and ship",
		Commands: []Command{
			mustParse(t, "/close", vctx),
			mustParse(t, "/stage shipped", vctx),
		},
	}
	stamp(composite, vctx, "close and ship")

	_, err := exec.Run(context.Background(), composite, true)
	require.ErrorIs(t, err, ErrUnresolvedTarget)
	assert.False(t, item(t, m, 2).Closed)
	assert.Empty(t, rec.entries)
}

func TestRunReportsUnresolvedTargets(t *testing.T) {
	m := demo(t)

	tests := []struct {
		name string
		url  string
		line string
		want error
	}{
		{"unknown assignee", "/items/2", "/assign nobody", ErrUnresolvedTarget},
		{"unknown stage", "/items/2", "/stage shipped", ErrUnresolvedTarget},
		{"missing tag", "/items/2", "/tag", ErrUnresolvedTarget},
		{"unknown person", "/items", "@nobody", ErrUnresolvedTarget},
		{"unknown hashtag", "/items", "#unheard-of", ErrUnresolvedTarget},
		{"visit nowhere", "/items", "/visit", ErrUnresolvedTarget},
		{"no items in view", "/account/settings", "/close", ErrNoItems},
		{"no items to assign", "/account/settings", "/assign kevin", ErrNoItems},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, rec := newTestExecutor(m)
			_, err := exec.Run(context.Background(), mustParse(t, tt.line, viewAt(m, tt.url)), true)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, rec.entries)
		})
	}
}

func TestNavigationRedirectsCarryPrefix(t *testing.T) {
	m := demo(t)
	vctx := view.New(m, kevin, "/123/items", "/123")
	listed := tracker.Filter{IndexedBy: tracker.DefaultIndexedBy}

	tests := []struct {
		line string
		want string
	}{
		{"@kevin", "/123/users/kevin"},
		{"2", "/123/items/2"},
		{"/search mobile", "/123/search?q=mobile"},
		{"/visit /account/settings", "/123/account/settings"},
		{"/visit https://example.com/x", "https://example.com/x"},
		{"1, 2", "/123" + routing.ItemsPath(listed.Merge(tracker.Filter{ItemIDs: []int{1, 2}}))},
		{"#design", "/123" + routing.ItemsPath(listed.Merge(tracker.Filter{TagIDs: []string{"design"}}))},
		{"/clear", "/123/items"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			exec, _ := newTestExecutor(m)
			out, err := exec.Run(context.Background(), mustParse(t, tt.line, vctx), false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Redirect)
			assert.Empty(t, out.Message)
		})
	}
}

func TestAddItemCreatesDraft(t *testing.T) {
	m := demo(t)
	exec, _ := newTestExecutor(m)

	out, err := exec.Run(context.Background(), mustParse(t, "/add Fix the header", viewAt(m, "/items/2")), false)
	require.NoError(t, err)
	assert.Equal(t, "Added item 6", out.Message)
	assert.Equal(t, "/items/6", out.Redirect)

	created := item(t, m, 6)
	assert.Equal(t, "Fix the header", created.Title)
	assert.Equal(t, tracker.StatusDrafted, created.Status)
	assert.Equal(t, "kevin", created.CreatorID)
	assert.Equal(t, "writebook", created.CollectionID)
}

func TestClearFiltersUndoRestoresFilter(t *testing.T) {
	m := demo(t)
	exec, _ := newTestExecutor(m)
	ctx := context.Background()

	cmd := mustParse(t, "/clear", viewAt(m, "/items?tag_ids[]=design"))
	out, err := exec.Run(ctx, cmd, false)
	require.NoError(t, err)
	assert.Equal(t, "/items", out.Redirect)

	res, err := exec.Undo(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, "Restore filters", res.Message)
	want := tracker.Filter{IndexedBy: tracker.DefaultIndexedBy, TagIDs: []string{"design"}}
	assert.Equal(t, routing.ItemsPath(want), res.Redirect)
}

func TestDescribe(t *testing.T) {
	m := demo(t)
	cmd := mustParse(t, "/close", viewAt(m, "/items?assignee_ids[]=jz"))

	n := Describe(cmd)
	assert.Equal(t, KindClose, n.Kind)
	assert.Equal(t, "Close 2 items", n.Title)
	assert.Equal(t, "/close", n.Line)
	assert.ElementsMatch(t, []int{1, 3}, n.Items)
	assert.True(t, n.Confirm)
	assert.Empty(t, n.Children)
}
