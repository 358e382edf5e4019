package perception

import (
	"cmdbar/internal/tracker"
	"cmdbar/internal/view"
)

// Resolve maps the names in t's filter to entity ids through vctx. Each
// list is resolved independently and names that match nothing are dropped.
// The boolean is false when t carries no filter at all.
func (t Translation) Resolve(vctx *view.Context) (tracker.Filter, bool) {
	if t.Context == nil {
		return tracker.Filter{}, false
	}
	named := *t.Context
	resolved := tracker.Filter{
		Terms:            named.Terms,
		IndexedBy:        named.IndexedBy,
		AssignmentStatus: named.AssignmentStatus,
		ItemIDs:          named.ItemIDs,
		Creation:         named.Creation,
		Closure:          named.Closure,
	}

	person := personID(vctx)
	resolved.AssigneeIDs = resolveNames(named.AssigneeIDs, person)
	resolved.CreatorIDs = resolveNames(named.CreatorIDs, person)
	resolved.CloserIDs = resolveNames(named.CloserIDs, person)
	resolved.StageIDs = resolveNames(named.StageIDs, func(name string) (string, bool) {
		s, ok := vctx.FindStage(name)
		return s.ID, ok
	})
	resolved.CollectionIDs = resolveNames(named.CollectionIDs, func(name string) (string, bool) {
		c, ok := vctx.FindCollection(name)
		return c.ID, ok
	})
	resolved.TagIDs = resolveNames(named.TagIDs, func(name string) (string, bool) {
		tag, ok := vctx.FindTag(name)
		return tag.ID, ok
	})

	return resolved, true
}

func personID(vctx *view.Context) func(string) (string, bool) {
	return func(name string) (string, bool) {
		p, ok := vctx.FindPerson(name)
		return p.ID, ok
	}
}

// resolveNames keeps the ids of the names find resolves, without repeats.
func resolveNames(names []string, find func(string) (string, bool)) []string {
	var out []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		id, ok := find(name)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
