// Package store holds the tracker data the command pipeline reads and
// mutates: a read-only Directory of people, tags, stages, collections and
// items, an in-memory world that also applies command effects, its YAML seed
// file, and the SQLite command history.
package store

import (
	"cmdbar/internal/tracker"

	"github.com/google/uuid"
)

// Directory is the read-only lookup surface used by view contexts and
// resolvers. Lookups report "not found" with false; they never fail.
type Directory interface {
	Person(id string) (tracker.Person, bool)
	People() []tracker.Person
	Tag(id string) (tracker.Tag, bool)
	Tags() []tracker.Tag
	Stage(id string) (tracker.Stage, bool)
	Stages() []tracker.Stage
	Workflow(id string) (tracker.Workflow, bool)
	Collection(id string) (tracker.Collection, bool)
	Collections() []tracker.Collection
	Item(id int) (tracker.Item, bool)

	// AccessibleItem returns the item if actorID can see it.
	AccessibleItem(actorID string, id int) (tracker.Item, bool)
	// AccessibleItems lists every published item actorID can see, by id.
	AccessibleItems(actorID string) []tracker.Item
	// FilterItems lists published, accessible items matching f in the order
	// f.IndexedBy names. limit <= 0 means no limit.
	FilterItems(actorID string, f tracker.Filter, limit int) []tracker.Item
	// SearchItems lists accessible items whose text contains every word of q.
	SearchItems(actorID, q string, limit int) []tracker.Item
}

// World is the complete tracker state, as persisted in the seed file.
type World struct {
	People      []tracker.Person     `yaml:"people"`
	Tags        []tracker.Tag        `yaml:"tags"`
	Workflows   []tracker.Workflow   `yaml:"workflows"`
	Stages      []tracker.Stage      `yaml:"stages"`
	Collections []tracker.Collection `yaml:"collections"`
	Items       []tracker.Item       `yaml:"items"`
}

// Clone returns a deep copy of w.
func (w World) Clone() World {
	out := World{
		People:      append([]tracker.Person(nil), w.People...),
		Tags:        append([]tracker.Tag(nil), w.Tags...),
		Workflows:   append([]tracker.Workflow(nil), w.Workflows...),
		Stages:      append([]tracker.Stage(nil), w.Stages...),
		Collections: make([]tracker.Collection, len(w.Collections)),
		Items:       make([]tracker.Item, len(w.Items)),
	}
	for i, c := range w.Collections {
		c.AccessIDs = append([]string(nil), c.AccessIDs...)
		out.Collections[i] = c
	}
	for i, item := range w.Items {
		item.AssigneeIDs = append([]string(nil), item.AssigneeIDs...)
		item.TagIDs = append([]string(nil), item.TagIDs...)
		out.Items[i] = item
	}
	return out
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}
