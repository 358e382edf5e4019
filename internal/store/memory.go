package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cmdbar/internal/logging"
	"cmdbar/internal/tracker"
)

// Activity thresholds behind the stalled, closing_soon and
// falling_back_soon orderings.
const (
	StalledAfter         = 30 * 24 * time.Hour
	AutoCloseAfter       = 30 * 24 * time.Hour
	ClosingSoonWithin    = 7 * 24 * time.Hour
	FallBackAfter        = 14 * 24 * time.Hour
	FallingBackSoonAfter = 10 * 24 * time.Hour
)

// Memory is an in-memory World. It serves as the Directory for parsing and
// applies command effects. Transactions are serialized; reads are safe
// from any goroutine.
type Memory struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	world World

	// Now is the clock used for activity, window filters and timestamps.
	Now func() time.Time
}

// NewMemory returns a world seeded with a copy of w.
func NewMemory(w World) *Memory {
	return &Memory{world: w.Clone(), Now: time.Now}
}

// Snapshot returns a deep copy of the current world.
func (m *Memory) Snapshot() World {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.world.Clone()
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (m *Memory) Person(id string) (tracker.Person, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.world.People {
		if p.ID == id {
			return p, true
		}
	}
	return tracker.Person{}, false
}

func (m *Memory) People() []tracker.Person {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]tracker.Person(nil), m.world.People...)
}

func (m *Memory) Tag(id string) (tracker.Tag, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.world.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return tracker.Tag{}, false
}

func (m *Memory) Tags() []tracker.Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]tracker.Tag(nil), m.world.Tags...)
}

func (m *Memory) Stage(id string) (tracker.Stage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.world.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return tracker.Stage{}, false
}

// Stages lists every stage, ordered by workflow then position.
func (m *Memory) Stages() []tracker.Stage {
	m.mu.RLock()
	stages := append([]tracker.Stage(nil), m.world.Stages...)
	m.mu.RUnlock()

	sort.SliceStable(stages, func(i, j int) bool {
		if stages[i].WorkflowID != stages[j].WorkflowID {
			return stages[i].WorkflowID < stages[j].WorkflowID
		}
		return stages[i].Position < stages[j].Position
	})
	return stages
}

func (m *Memory) Workflow(id string) (tracker.Workflow, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.world.Workflows {
		if w.ID == id {
			return w, true
		}
	}
	return tracker.Workflow{}, false
}

func (m *Memory) Collection(id string) (tracker.Collection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.world.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return tracker.Collection{}, false
}

// Collections lists collections in seed order.
func (m *Memory) Collections() []tracker.Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]tracker.Collection(nil), m.world.Collections...)
}

func (m *Memory) Item(id int) (tracker.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		return m.world.Items[i], true
	}
	return tracker.Item{}, false
}

func (m *Memory) AccessibleItem(actorID string, id int) (tracker.Item, bool) {
	item, ok := m.Item(id)
	if !ok || !m.accessible(actorID, item) {
		return tracker.Item{}, false
	}
	return item, true
}

func (m *Memory) AccessibleItems(actorID string) []tracker.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []tracker.Item
	for _, item := range m.world.Items {
		if item.Published() && m.accessibleLocked(actorID, item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) FilterItems(actorID string, f tracker.Filter, limit int) []tracker.Item {
	now := m.Now()
	f = f.WithDefaults()

	var out []tracker.Item
	for _, item := range m.AccessibleItems(actorID) {
		if matches(item, f, now) {
			out = append(out, item)
		}
	}
	order(out, f.IndexedBy)
	return truncate(out, limit)
}

func (m *Memory) SearchItems(actorID, q string, limit int) []tracker.Item {
	words := strings.Fields(strings.ToLower(q))
	if len(words) == 0 {
		return nil
	}

	var out []tracker.Item
	for _, item := range m.AccessibleItems(actorID) {
		if containsAll(item, words) {
			out = append(out, item)
		}
	}
	order(out, tracker.IndexLatest)
	return truncate(out, limit)
}

func (m *Memory) accessible(actorID string, item tracker.Item) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessibleLocked(actorID, item)
}

func (m *Memory) accessibleLocked(actorID string, item tracker.Item) bool {
	for _, c := range m.world.Collections {
		if c.ID == item.CollectionID {
			return c.AccessibleBy(actorID)
		}
	}
	return false
}

func (m *Memory) indexOf(id int) int {
	for i, item := range m.world.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func matches(item tracker.Item, f tracker.Filter, now time.Time) bool {
	wantClosed := f.IndexedBy == tracker.IndexClosed || f.Closure != "" || len(f.CloserIDs) > 0
	if item.Closed != wantClosed {
		return false
	}

	if len(f.Terms) > 0 && !containsAll(item, lowerAll(f.Terms)) {
		return false
	}
	if len(f.ItemIDs) > 0 && !containsInt(f.ItemIDs, item.ID) {
		return false
	}
	if len(f.AssigneeIDs) > 0 && !anyOf(f.AssigneeIDs, item.AssignedTo) {
		return false
	}
	if f.AssignmentStatus == tracker.AssignmentUnassigned && len(item.AssigneeIDs) > 0 {
		return false
	}
	if len(f.CreatorIDs) > 0 && !containsString(f.CreatorIDs, item.CreatorID) {
		return false
	}
	if len(f.CloserIDs) > 0 && !containsString(f.CloserIDs, item.CloserID) {
		return false
	}
	if len(f.StageIDs) > 0 && !containsString(f.StageIDs, item.StageID) {
		return false
	}
	if len(f.CollectionIDs) > 0 && !containsString(f.CollectionIDs, item.CollectionID) {
		return false
	}
	if len(f.TagIDs) > 0 && !anyOf(f.TagIDs, item.TaggedWith) {
		return false
	}
	if f.Creation != "" && !within(f.Creation, item.CreatedAt, now) {
		return false
	}
	if f.Closure != "" && !within(f.Closure, item.ClosedAt, now) {
		return false
	}

	idle := now.Sub(item.LastActiveAt)
	switch f.IndexedBy {
	case tracker.IndexStalled:
		return idle >= StalledAfter
	case tracker.IndexClosingSoon:
		return item.Engagement != tracker.EngagementDoing && idle >= AutoCloseAfter-ClosingSoonWithin
	case tracker.IndexFallingBackSoon:
		return item.Engagement == tracker.EngagementDoing && idle >= FallingBackSoonAfter && idle < FallBackAfter
	}
	return true
}

func order(items []tracker.Item, indexedBy string) {
	var less func(a, b tracker.Item) bool
	switch indexedBy {
	case tracker.IndexNewest:
		less = func(a, b tracker.Item) bool { return a.CreatedAt.After(b.CreatedAt) }
	case tracker.IndexOldest:
		less = func(a, b tracker.Item) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case tracker.IndexClosed:
		less = func(a, b tracker.Item) bool { return a.ClosedAt.After(b.ClosedAt) }
	case tracker.IndexStalled, tracker.IndexClosingSoon, tracker.IndexFallingBackSoon:
		less = func(a, b tracker.Item) bool { return a.LastActiveAt.Before(b.LastActiveAt) }
	default:
		less = func(a, b tracker.Item) bool { return a.LastActiveAt.After(b.LastActiveAt) }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if less(items[i], items[j]) {
			return true
		}
		if less(items[j], items[i]) {
			return false
		}
		return items[i].ID < items[j].ID
	})
}

func truncate(items []tracker.Item, limit int) []tracker.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func within(window string, t time.Time, now time.Time) bool {
	start, end, ok := tracker.Window(window, now)
	if !ok || t.IsZero() {
		return false
	}
	return !t.Before(start) && t.Before(end)
}

func containsAll(item tracker.Item, words []string) bool {
	text := strings.ToLower(item.Title + " " + item.Description)
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func anyOf(ids []string, has func(string) bool) bool {
	for _, id := range ids {
		if has(id) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}

// =============================================================================
// COMMAND EFFECTS
// =============================================================================

// Atomically runs fn as one transaction: if fn returns an error every
// change it made is rolled back.
func (m *Memory) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	saved := m.Snapshot()
	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.world = saved
		m.mu.Unlock()
		logging.StoreWarn("Transaction rolled back: %v", err)
		return err
	}
	return nil
}

// mutate applies fn to each named item under the write lock. Unknown ids
// fail the whole call before anything changes.
func (m *Memory) mutate(ctx context.Context, itemIDs []int, fn func(item *tracker.Item)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	indexes := make([]int, 0, len(itemIDs))
	for _, id := range itemIDs {
		i := m.indexOf(id)
		if i < 0 {
			return fmt.Errorf("item %d not found", id)
		}
		indexes = append(indexes, i)
	}
	now := m.Now()
	for _, i := range indexes {
		fn(&m.world.Items[i])
		m.world.Items[i].LastActiveAt = now
	}
	return nil
}

// Assign adds each person to each item and returns the assignments that
// did not exist before.
func (m *Memory) Assign(ctx context.Context, itemIDs []int, personIDs []string) ([]tracker.Assignment, error) {
	for _, id := range personIDs {
		if _, ok := m.Person(id); !ok {
			return nil, fmt.Errorf("person %s not found", id)
		}
	}

	var added []tracker.Assignment
	err := m.mutate(ctx, itemIDs, func(item *tracker.Item) {
		for _, personID := range personIDs {
			if !item.AssignedTo(personID) {
				item.AssigneeIDs = append(item.AssigneeIDs, personID)
				added = append(added, tracker.Assignment{ItemID: item.ID, PersonID: personID})
			}
		}
	})
	if err != nil {
		return nil, err
	}
	logging.StoreDebug("Assigned %v to %v (%d new)", personIDs, itemIDs, len(added))
	return added, nil
}

// Unassign removes exactly the given assignments.
func (m *Memory) Unassign(ctx context.Context, assignments []tracker.Assignment) error {
	for _, a := range assignments {
		personID := a.PersonID
		err := m.mutate(ctx, []int{a.ItemID}, func(item *tracker.Item) {
			item.AssigneeIDs = without(item.AssigneeIDs, personID)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// TagItems attaches the tag titled title to each item, creating the tag if
// no tag has that title. It returns the tag and the items newly tagged.
func (m *Memory) TagItems(ctx context.Context, itemIDs []int, title string) (tracker.Tag, []int, error) {
	title = strings.TrimSpace(strings.TrimPrefix(title, "#"))
	if title == "" {
		return tracker.Tag{}, nil, fmt.Errorf("tag title is blank")
	}

	tag := m.findOrCreateTag(title)
	var added []int
	err := m.mutate(ctx, itemIDs, func(item *tracker.Item) {
		if !item.TaggedWith(tag.ID) {
			item.TagIDs = append(item.TagIDs, tag.ID)
			added = append(added, item.ID)
		}
	})
	if err != nil {
		return tracker.Tag{}, nil, err
	}
	return tag, added, nil
}

func (m *Memory) findOrCreateTag(title string) tracker.Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.world.Tags {
		if strings.EqualFold(t.Title, title) {
			return t
		}
	}
	tag := tracker.Tag{ID: NewID(), Title: title}
	m.world.Tags = append(m.world.Tags, tag)
	logging.StoreDebug("Created tag %s (%s)", tag.Title, tag.ID)
	return tag
}

// Untag detaches tagID from the given items.
func (m *Memory) Untag(ctx context.Context, tagID string, itemIDs []int) error {
	return m.mutate(ctx, itemIDs, func(item *tracker.Item) {
		item.TagIDs = without(item.TagIDs, tagID)
	})
}

// Close closes the open items among itemIDs and returns them.
func (m *Memory) Close(ctx context.Context, actorID string, itemIDs []int, reason string) ([]int, error) {
	now := m.Now()
	var closed []int
	err := m.mutate(ctx, itemIDs, func(item *tracker.Item) {
		if item.Closed {
			return
		}
		item.Closed = true
		item.ClosedAt = now
		item.CloserID = actorID
		item.CloseReason = reason
		closed = append(closed, item.ID)
	})
	return closed, err
}

// Reopen reopens the closed items among itemIDs and returns them.
func (m *Memory) Reopen(ctx context.Context, itemIDs []int) ([]int, error) {
	var reopened []int
	err := m.mutate(ctx, itemIDs, func(item *tracker.Item) {
		if !item.Closed {
			return
		}
		item.Closed = false
		item.ClosedAt = time.Time{}
		item.CloserID = ""
		item.CloseReason = ""
		reopened = append(reopened, item.ID)
	})
	return reopened, err
}

// MoveToStage moves each item to stageID and returns each item's prior stage.
func (m *Memory) MoveToStage(ctx context.Context, itemIDs []int, stageID string) (map[int]string, error) {
	if _, ok := m.Stage(stageID); !ok {
		return nil, fmt.Errorf("stage %s not found", stageID)
	}
	prior := make(map[int]string, len(itemIDs))
	err := m.mutate(ctx, itemIDs, func(item *tracker.Item) {
		prior[item.ID] = item.StageID
		item.StageID = stageID
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}

// RestoreStages puts each item back in the stage recorded for it.
func (m *Memory) RestoreStages(ctx context.Context, prior map[int]string) error {
	for id, stageID := range prior {
		stageID := stageID
		if err := m.mutate(ctx, []int{id}, func(item *tracker.Item) { item.StageID = stageID }); err != nil {
			return err
		}
	}
	return nil
}

// Engage sets the engagement of each item and returns each prior value.
func (m *Memory) Engage(ctx context.Context, itemIDs []int, engagement tracker.Engagement) (map[int]tracker.Engagement, error) {
	prior := make(map[int]tracker.Engagement, len(itemIDs))
	err := m.mutate(ctx, itemIDs, func(item *tracker.Item) {
		prior[item.ID] = item.Engagement
		item.Engagement = engagement
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}

// RestoreEngagement puts each item back to its recorded engagement.
func (m *Memory) RestoreEngagement(ctx context.Context, prior map[int]tracker.Engagement) error {
	for id, engagement := range prior {
		engagement := engagement
		if err := m.mutate(ctx, []int{id}, func(item *tracker.Item) { item.Engagement = engagement }); err != nil {
			return err
		}
	}
	return nil
}

// CreateItem adds a draft item to collectionID.
func (m *Memory) CreateItem(ctx context.Context, actorID, collectionID, title string) (tracker.Item, error) {
	if err := ctx.Err(); err != nil {
		return tracker.Item{}, err
	}
	if _, ok := m.Collection(collectionID); !ok {
		return tracker.Item{}, fmt.Errorf("collection %s not found", collectionID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := 1
	for _, item := range m.world.Items {
		if item.ID >= next {
			next = item.ID + 1
		}
	}
	now := m.Now()
	item := tracker.Item{
		ID:           next,
		Title:        strings.TrimSpace(title),
		Status:       tracker.StatusDrafted,
		CollectionID: collectionID,
		CreatorID:    actorID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	m.world.Items = append(m.world.Items, item)
	logging.StoreDebug("Created item %d in %s", item.ID, collectionID)
	return item, nil
}

func without(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
