package view

import (
	"strconv"
	"strings"

	"cmdbar/internal/gid"
	"cmdbar/internal/store"
	"cmdbar/internal/tracker"

	"golang.org/x/text/cases"
)

// NewLocator registers a lookup for every entity kind against dir.
func NewLocator(dir store.Directory) *gid.Locator {
	l := gid.NewLocator()
	gid.Register(l, gid.KindPerson, dir.Person)
	gid.Register(l, gid.KindTag, dir.Tag)
	gid.Register(l, gid.KindStage, dir.Stage)
	gid.Register(l, gid.KindWorkflow, dir.Workflow)
	gid.Register(l, gid.KindCollection, dir.Collection)
	gid.Register(l, gid.KindItem, func(id string) (tracker.Item, bool) {
		n, err := strconv.Atoi(id)
		if err != nil {
			return tracker.Item{}, false
		}
		return dir.Item(n)
	})
	return l
}

// fold returns the caseless form of s. A Caser keeps state, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// FindPerson resolves "@name", a display name, a mentionable handle or a
// global reference.
func (c *Context) FindPerson(ref string) (tracker.Person, bool) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "@")
	if ref == "" {
		return tracker.Person{}, false
	}
	if gid.IsRef(ref) {
		return locate[tracker.Person](c.locator, ref)
	}

	want := fold(ref)
	for _, p := range c.dir.People() {
		if fold(p.Name) == want {
			return p, true
		}
		for _, handle := range p.MentionableHandles() {
			if fold(handle) == want {
				return p, true
			}
		}
	}
	return tracker.Person{}, false
}

// FindTag resolves "#title", a tag title or a global reference.
func (c *Context) FindTag(ref string) (tracker.Tag, bool) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if ref == "" {
		return tracker.Tag{}, false
	}
	if gid.IsRef(ref) {
		return locate[tracker.Tag](c.locator, ref)
	}

	want := fold(ref)
	for _, t := range c.dir.Tags() {
		if fold(t.Title) == want {
			return t, true
		}
	}
	return tracker.Tag{}, false
}

// FindStage returns the first candidate stage whose name contains ref.
func (c *Context) FindStage(ref string) (tracker.Stage, bool) {
	want := fold(ref)
	if want == "" {
		return tracker.Stage{}, false
	}
	for _, s := range c.CandidateStages() {
		if strings.Contains(fold(s.Name), want) {
			return s, true
		}
	}
	return tracker.Stage{}, false
}

// FindCollection returns the first visible collection whose name contains ref.
func (c *Context) FindCollection(ref string) (tracker.Collection, bool) {
	want := fold(ref)
	if want == "" {
		return tracker.Collection{}, false
	}
	for _, col := range c.Collections() {
		if strings.Contains(fold(col.Name), want) {
			return col, true
		}
	}
	return tracker.Collection{}, false
}

func locate[T any](l *gid.Locator, ref string) (T, bool) {
	located, ok := l.Locate(ref)
	if !ok {
		var zero T
		return zero, false
	}
	return gid.As[T](located)
}
